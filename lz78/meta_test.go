package lz78

import (
	"bytes"
	"testing"
)

func TestMetaRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	mw := newMetaWriter(bw)

	if err := mw.writeDictSize(4096); err != nil {
		t.Fatal(err)
	}
	if err := mw.writeName("report.txt"); err != nil {
		t.Fatal(err)
	}
	if err := mw.writeTimestamp(1700000000); err != nil {
		t.Fatal(err)
	}
	sum := bytes.Repeat([]byte{0xAB}, 16)
	if err := mw.writeMD5(sum); err != nil {
		t.Fatal(err)
	}
	if err := mw.writeEnd(); err != nil {
		t.Fatal(err)
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}

	br := NewBitReader(bytes.NewReader(buf.Bytes()))
	records, err := readMeta(br)
	if err != nil {
		t.Fatalf("readMeta: %v", err)
	}

	dictSize, ok := lookupDictSize(records)
	if !ok || dictSize != 4096 {
		t.Errorf("dictSize = (%d, %v), want (4096, true)", dictSize, ok)
	}
	name, ok := lookupName(records)
	if !ok || name != "report.txt" {
		t.Errorf("name = (%q, %v), want (%q, true)", name, ok, "report.txt")
	}
	sec, ok := lookupTimestamp(records)
	if !ok || sec != 1700000000 {
		t.Errorf("timestamp = (%d, %v), want (1700000000, true)", sec, ok)
	}
	gotSum, ok := lookupMD5(records)
	if !ok || !bytes.Equal(gotSum, sum) {
		t.Errorf("md5 = (%x, %v), want (%x, true)", gotSum, ok, sum)
	}
}

func TestMetaEndOnly(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	mw := newMetaWriter(bw)
	if err := mw.writeEnd(); err != nil {
		t.Fatal(err)
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Bytes(), []byte{0x00}; !bytes.Equal(got, want) {
		t.Errorf("bytes = %x, want %x", got, want)
	}

	br := NewBitReader(bytes.NewReader(buf.Bytes()))
	records, err := readMeta(br)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestMetaRejectsErrorType(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	mw := newMetaWriter(bw)
	if err := mw.writeRecord(metaError, []byte("x")); err != ErrInvalidArgument {
		t.Errorf("writeRecord(META_ERROR, ...) = %v, want ErrInvalidArgument", err)
	}
}
