package lz78

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsnet/lz78/internal/testutil"
)

// roundTrip compresses data with the given dict/hash-table sizes, then
// decompresses the result, and returns the decoded bytes.
func roundTrip(t *testing.T, data []byte, dictSize, htSize uint64) []byte {
	t.Helper()

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.bin")
	cmpPath := filepath.Join(dir, "out.lz78")
	outPath := filepath.Join(dir, "out.bin")

	if err := ioutil.WriteFile(inPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := Compress(inPath, cmpPath, dictSize, htSize, MetaDictSize|MetaMD5); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if err := Decompress(cmpPath, outPath, 0); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	got, err := ioutil.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestRoundTripBasic(t *testing.T) {
	var vectors = []struct {
		desc string
		data []byte
	}{
		{"empty input", nil},
		{"single byte", []byte{0x42}},
		{"every byte value", func() []byte {
			b := make([]byte, 256)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
		{"zero and 0xff runs", bytes.Repeat([]byte{0x00, 0xFF}, 200)},
		{"short phrase repeated", bytes.Repeat([]byte("abcabcabcabc"), 50)},
		{"shorter than dictionary", []byte("the quick brown fox")},
	}

	for _, v := range vectors {
		t.Run(v.desc, func(t *testing.T) {
			got := roundTrip(t, v.data, minDictSize, DefaultHTSize(minDictSize))
			if !cmp.Equal(got, v.data) && !(len(got) == 0 && len(v.data) == 0) {
				t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(v.data))
			}
		})
	}
}

func TestRoundTripTriggersFlush(t *testing.T) {
	// A small dict_size forces many reinit flushes over a longer input.
	r := testutil.NewRand(1)
	data := r.Bytes(1 << 16)
	got := roundTrip(t, data, minDictSize, DefaultHTSize(minDictSize))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip with forced flushes mismatched (%d vs %d bytes)", len(got), len(data))
	}
}

func TestRoundTripRepeatsCorpus(t *testing.T) {
	// Dictionary-friendly input: long runs built from a small alphabet,
	// exercising both long phrases and eventual flushes.
	r := testutil.NewRand(7)
	var buf bytes.Buffer
	for buf.Len() < 1<<15 {
		switch r.Intn(3) {
		case 0:
			buf.WriteByte(byte(r.Intn(4)))
		case 1:
			buf.Write(bytes.Repeat([]byte{byte(r.Intn(4))}, 1+r.Intn(64)))
		case 2:
			buf.Write(r.Bytes(1 + r.Intn(16)))
		}
	}
	data := buf.Bytes()
	got := roundTrip(t, data, minDictSize, DefaultHTSize(minDictSize))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip over repeat-heavy corpus mismatched (%d vs %d bytes)", len(got), len(data))
	}
}

func TestRoundTripLargerDictionary(t *testing.T) {
	r := testutil.NewRand(3)
	data := r.Bytes(1 << 15)
	got := roundTrip(t, data, 1<<14, DefaultHTSize(1<<14))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip with larger dictionary mismatched (%d vs %d bytes)", len(got), len(data))
	}
}

func TestCompressRejectsSamePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "same.bin")
	if err := ioutil.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Compress(p, p, minDictSize, DefaultHTSize(minDictSize), 0); err != ErrInvalidArgument {
		t.Errorf("Compress(same path) = %v, want ErrInvalidArgument", err)
	}
}

func TestCompressRejectsBadDictSize(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	out := filepath.Join(dir, "out.lz78")
	if err := ioutil.WriteFile(in, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Compress(in, out, 10, 20, 0); err != ErrInvalidArgument {
		t.Errorf("Compress(dict_size=10) = %v, want ErrInvalidArgument", err)
	}
	if err := Compress(in, out, 1024, 512, 0); err != ErrInvalidArgument {
		t.Errorf("Compress(ht_size<dict_size) = %v, want ErrInvalidArgument", err)
	}
}

func TestDecompressIntegrityFailureUnlinksOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	cmpPath := filepath.Join(dir, "out.lz78")
	outPath := filepath.Join(dir, "out.bin")

	if err := ioutil.WriteFile(in, []byte("hello, world"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Compress(in, cmpPath, minDictSize, DefaultHTSize(minDictSize), MetaDictSize|MetaMD5); err != nil {
		t.Fatal(err)
	}

	raw, err := ioutil.ReadFile(cmpPath)
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt a byte inside the MD5 payload, which is the last metadata
	// record before META_END; flipping a bit there should not change the
	// decoded codeword stream, only make the recorded digest wrong.
	idx := bytes.IndexByte(raw, MetaMD5T)
	if idx < 0 {
		t.Fatal("could not locate META_MD5 record in container")
	}
	raw[idx+2] ^= 0xFF
	if err := ioutil.WriteFile(cmpPath, raw, 0644); err != nil {
		t.Fatal(err)
	}

	err = Decompress(cmpPath, outPath, 0)
	if err != ErrIntegrity {
		t.Fatalf("Decompress with corrupted MD5: err = %v, want ErrIntegrity", err)
	}
	if _, serr := os.Stat(outPath); !os.IsNotExist(serr) {
		t.Errorf("partial output at %q was not unlinked after integrity failure", outPath)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	// writer.go and reader.go both gate their codeword-width growth on
	// this predicate, so its boundary cases matter as much as the round
	// trips that exercise it indirectly.
	var vectors = []struct {
		n    uint64
		want bool
	}{
		{0, false}, {1, true}, {2, true}, {3, false}, {4, true},
		{255, false}, {256, true}, {511, false}, {512, true}, {513, false},
	}
	for _, v := range vectors {
		if got := isPowerOfTwo(v.n); got != v.want {
			t.Errorf("isPowerOfTwo(%d) = %v, want %v", v.n, got, v.want)
		}
	}
}
