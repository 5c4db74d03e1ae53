package lz78

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsnet/golib/errs"
	"github.com/dsnet/golib/ioutil"
)

// Metadata record types, per the container's TLV prefix.
const (
	MetaEnd       = 0
	MetaDictSizeT = 1
	MetaNameT     = 2
	MetaTimestampT = 4
	MetaMD5T      = 8
	metaError     = 255 // reserved, never written
)

// maxMetaPayload bounds meta_read's allocation: the TLV length byte can
// claim up to 255, but we never need more than this for any defined
// record, so a corrupt length that claims more than fits in a byte is
// already impossible — this instead guards against a caller-supplied
// record list that lies about its own size.
const maxMetaPayload = 255

// metaWriter appends TLV metadata records ahead of the codeword stream. It
// is side-effect free with respect to the dictionary and codeword stream,
// per §4.B's write contract.
type metaWriter struct {
	bw *BitWriter
}

func newMetaWriter(bw *BitWriter) *metaWriter {
	return &metaWriter{bw: bw}
}

// writeRecord emits one TLV record: typ, then (for typ != MetaEnd) len(data)
// as a single byte followed by data itself.
func (mw *metaWriter) writeRecord(typ byte, data []byte) (err error) {
	defer errs.Recover(&err)

	errs.Assert(typ != metaError, ErrInvalidArgument)
	if typ == MetaEnd {
		_, err := mw.bw.Write(uint64(MetaEnd), 8)
		errs.Panic(err)
		return nil
	}
	errs.Assert(len(data) <= maxMetaPayload, ErrInvalidArgument)

	_, err = mw.bw.Write(uint64(typ), 8)
	errs.Panic(err)
	_, err = mw.bw.Write(uint64(len(data)), 8)
	errs.Panic(err)
	for _, b := range data {
		_, err = mw.bw.Write(uint64(b), 8)
		errs.Panic(err)
	}
	return nil
}

func (mw *metaWriter) writeDictSize(dictSize uint64) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(dictSize))
	return mw.writeRecord(MetaDictSizeT, buf[:])
}

func (mw *metaWriter) writeName(name string) error {
	return mw.writeRecord(MetaNameT, append([]byte(name), 0))
}

func (mw *metaWriter) writeTimestamp(sec int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(sec))
	return mw.writeRecord(MetaTimestampT, buf[:])
}

func (mw *metaWriter) writeMD5(sum []byte) error {
	return mw.writeRecord(MetaMD5T, sum)
}

func (mw *metaWriter) writeEnd() error {
	return mw.writeRecord(MetaEnd, nil)
}

// metaRecord is one parsed TLV record.
type metaRecord struct {
	Type byte
	Data []byte
}

// readMeta consumes the full TLV prefix from br, stopping after META_END,
// and returns every non-terminator record it saw. Each payload is fetched
// with ioutil.ByteCopyN over a one-byte-at-a-time adapter, capping any
// single record's allocation at maxMetaPayload regardless of record count.
func readMeta(br *BitReader) (records []metaRecord, err error) {
	defer errs.Recover(&err)

	brd := bitByteReader{br: br}
	for {
		typ, ioErr := brd.ReadByte()
		errs.Panic(ioErr)
		if typ == MetaEnd {
			return records, nil
		}

		size, ioErr := brd.ReadByte()
		errs.Panic(ioErr)
		errs.Assert(int(size) <= maxMetaPayload, ErrCorrupt)

		var blk bytes.Buffer
		n, ioErr := ioutil.ByteCopyN(&blk, &brd, int(size))
		if n > 0 && ioErr == io.EOF {
			ioErr = io.ErrUnexpectedEOF
		}
		errs.Panic(ioErr)
		errs.Assert(n == int(size), ErrCorrupt)
		if typ == MetaNameT {
			// META_NAME must carry its trailing NUL terminator.
			errs.Assert(blk.Len() > 0 && blk.Bytes()[blk.Len()-1] == 0, ErrCorrupt)
		}

		records = append(records, metaRecord{Type: typ, Data: append([]byte(nil), blk.Bytes()...)})
	}
}

// bitByteReader adapts a BitReader, which only knows how to move whole
// bit-widths, to the io.ByteReader interface the golib/ioutil helpers
// expect.
type bitByteReader struct {
	br *BitReader
}

func (r *bitByteReader) ReadByte() (byte, error) {
	var v uint64
	n, err := r.br.Read(&v, 8)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	if n != 8 {
		return 0, ErrCorrupt
	}
	return byte(v), nil
}

func (r *bitByteReader) Read(p []byte) (int, error) {
	for i := range p {
		b, err := r.ReadByte()
		if err != nil {
			return i, err
		}
		p[i] = b
	}
	return len(p), nil
}

var _ byteReader = (*bitByteReader)(nil)

// lookupDictSize extracts META_DICT_SIZE from a parsed record set, the only
// record the reader must consume before constructing the dictionary.
func lookupDictSize(records []metaRecord) (dictSize uint64, ok bool) {
	for _, r := range records {
		if r.Type == MetaDictSizeT && len(r.Data) == 4 {
			return uint64(binary.LittleEndian.Uint32(r.Data)), true
		}
	}
	return 0, false
}

func lookupName(records []metaRecord) (name string, ok bool) {
	for _, r := range records {
		if r.Type == MetaNameT {
			if i := bytes.IndexByte(r.Data, 0); i >= 0 {
				return string(r.Data[:i]), true
			}
			return string(r.Data), true
		}
	}
	return "", false
}

func lookupMD5(records []metaRecord) (sum []byte, ok bool) {
	for _, r := range records {
		if r.Type == MetaMD5T {
			return r.Data, true
		}
	}
	return nil, false
}

func lookupTimestamp(records []metaRecord) (sec int64, ok bool) {
	for _, r := range records {
		if r.Type == MetaTimestampT && len(r.Data) == 8 {
			return int64(binary.LittleEndian.Uint64(r.Data)), true
		}
	}
	return 0, false
}
