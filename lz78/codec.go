package lz78

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dsnet/golib/errs"
)

// OpenMode selects the access mode for OpenBitReader/OpenBitWriter's
// underlying file.
type OpenMode int

const (
	ModeRead   OpenMode = iota // open existing file read-only
	ModeWrite                  // create or truncate for writing
	ModeAppend                 // create or open for appending
)

func openFile(path string, mode OpenMode) (*os.File, error) {
	switch mode {
	case ModeRead:
		return os.Open(path)
	case ModeWrite:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	case ModeAppend:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	default:
		return nil, ErrInvalidArgument
	}
}

// Stdin, Stdout, and Stderr are the ambient standard streams. They are
// process-lifetime singletons: Close on a BitReader/BitWriter opened over
// them with a "" path never closes them, per §5's resource discipline.
var (
	stdStreamsOnce sync.Once
	Stdin          *os.File
	Stdout         *os.File
	Stderr         *os.File
)

func init() {
	stdStreamsOnce.Do(func() {
		Stdin, Stdout, Stderr = os.Stdin, os.Stdout, os.Stderr
	})
}

// Flags is a bitfield selecting which optional metadata records Compress
// writes, or which optional behavior Decompress performs.
type Flags uint32

const (
	// MetaDictSize records dict_size; required for any reader that isn't
	// separately told the value out of band.
	MetaDictSize Flags = 1 << iota
	// MetaName records the basename of in_path.
	MetaName
	// MetaTimestamp records in_path's modification time.
	MetaTimestamp
	// MetaMD5 digests the input (when seekable) and records it for
	// integrity checking on decompression.
	MetaMD5

	// DecOrigFilename directs Decompress, when outPath is "", to write to
	// the basename recorded in META_NAME instead of the ambient standard
	// output. If no META_NAME record is present, Decompress falls back to
	// the standard output as usual.
	DecOrigFilename Flags = 1 << 16
	// KeepTime directs Decompress to restore the modification time
	// recorded in META_TIMESTAMP on the file it writes. It has no effect
	// when outPath resolves to the ambient standard output.
	KeepTime Flags = 1 << 17
)

// defaultHTSizeFactor sizes the hash table relative to dict_size when the
// caller does not have a more specific preference; a small amount of slack
// over dict_size keeps the linear probe short.
const defaultHTSizeFactor = 2

// DefaultHTSize returns a reasonable ht_size for a given dict_size: twice
// dict_size, which keeps the open-addressed table under 50% load.
func DefaultHTSize(dictSize uint64) uint64 {
	return dictSize * defaultHTSizeFactor
}

// Compress reads inPath (or the ambient standard input if inPath is "")
// and writes the LZ78 container to outPath (or the ambient standard output
// if outPath is ""), per §6.4. flags selects which metadata records are
// recorded ahead of the codeword stream.
//
// On any failure the output bit stream is flushed and closed, but — unlike
// Decompress — outPath is not unlinked; the caller decides whether a
// partial compressed file is worth keeping.
func Compress(inPath, outPath string, dictSize, htSize uint64, flags Flags) (err error) {
	if inPath != "" && inPath == outPath {
		return ErrInvalidArgument
	}
	if dictSize < minDictSize || dictSize > maxDictSize {
		return ErrInvalidArgument
	}
	if htSize < dictSize || htSize > maxHTSize {
		return ErrInvalidArgument
	}
	defer errRecover(&err)

	var in io.Reader
	var name string
	var modTime int64
	var seekable *os.File
	if inPath == "" {
		in = Stdin
	} else {
		f, ferr := os.Open(inPath)
		errs.Panic(ferr)
		defer f.Close()
		in = f
		seekable = f
		name = filepath.Base(inPath)
		if fi, serr := f.Stat(); serr == nil {
			modTime = fi.ModTime().Unix()
		}
	}

	var md5sum []byte
	if flags&MetaMD5 != 0 && seekable != nil {
		dig := newDigester()
		_, cerr := io.Copy(digestWriter{dig}, seekable)
		errs.Panic(cerr)
		_, serr := seekable.Seek(0, io.SeekStart)
		errs.Panic(serr)
		md5sum = dig.finalize()
	}

	bw, berr := OpenBitWriter(outPath, ModeWrite)
	errs.Panic(berr)
	defer bw.Close()

	mw := newMetaWriter(bw)
	if flags&MetaDictSize != 0 {
		errs.Panic(mw.writeDictSize(dictSize))
	}
	if flags&MetaName != 0 && name != "" {
		errs.Panic(mw.writeName(name))
	}
	if flags&MetaTimestamp != 0 && modTime != 0 {
		errs.Panic(mw.writeTimestamp(modTime))
	}
	if flags&MetaMD5 != 0 && md5sum != nil {
		errs.Panic(mw.writeMD5(md5sum))
	}
	errs.Panic(mw.writeEnd())

	zw, werr := NewWriter(bw, dictSize, htSize)
	errs.Panic(werr)
	_, cerr := io.Copy(zw, in)
	errs.Panic(cerr)
	errs.Panic(zw.Close())
	return nil
}

// Decompress reads the LZ78 container at inPath (or the ambient standard
// input) and writes the decoded content to outPath (or the ambient
// standard output). If the container carries META_MD5, the decoded
// content's digest is checked; a mismatch is a hard failure and, when
// outPath names a real file, the partial output is unlinked.
func Decompress(inPath, outPath string, flags Flags) (err error) {
	if inPath != "" && inPath == outPath {
		return ErrInvalidArgument
	}
	defer errRecover(&err)

	br, rerr := OpenBitReader(inPath)
	errs.Panic(rerr)
	defer br.Close()

	records, merr := readMeta(br)
	errs.Panic(merr)

	dictSize, ok := lookupDictSize(records)
	if !ok {
		panic(ErrCorrupt)
	}
	htSize := DefaultHTSize(dictSize)
	wantMD5, hasMD5 := lookupMD5(records)

	if outPath == "" && flags&DecOrigFilename != 0 {
		if name, ok := lookupName(records); ok {
			outPath = name
		}
	}

	// outIsFile (rather than a type assertion on out) is what actually
	// decides whether we may Close/Remove it: out is *os.File even for
	// the ambient Stdout, which must never be closed by user code.
	outIsFile := outPath != ""
	out, operr := openOutput(outPath)
	errs.Panic(operr)

	zr, zerr := NewReader(br, dictSize, htSize)
	if zerr != nil {
		cleanupFailedOutput(out, outPath, outIsFile)
		return zerr
	}

	var dig *digester
	var w io.Writer = out
	if hasMD5 {
		dig = newDigester()
		w = io.MultiWriter(out, digestWriter{dig})
	}

	_, cerr := io.Copy(w, zr)
	if cerr != nil {
		cleanupFailedOutput(out, outPath, outIsFile)
		panic(cerr)
	}

	if hasMD5 {
		got := dig.finalize()
		if !bytesEqual(got, wantMD5) {
			cleanupFailedOutput(out, outPath, outIsFile)
			panic(ErrIntegrity)
		}
	}

	if outIsFile {
		errs.Panic(out.(*os.File).Close())
		if flags&KeepTime != 0 {
			if sec, ok := lookupTimestamp(records); ok {
				t := time.Unix(sec, 0)
				errs.Panic(os.Chtimes(outPath, t, t))
			}
		}
	}
	return nil
}

func openOutput(outPath string) (io.Writer, error) {
	if outPath == "" {
		return Stdout, nil
	}
	return openFile(outPath, ModeWrite)
}

// cleanupFailedOutput closes and unlinks a named output file after a
// decompression failure. It is a no-op for the ambient standard stream.
func cleanupFailedOutput(out io.Writer, outPath string, isFile bool) {
	if !isFile {
		return
	}
	if f, ok := out.(*os.File); ok {
		f.Close()
	}
	os.Remove(outPath)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// digestWriter adapts a digester to io.Writer so it can be composed with
// io.Copy and io.MultiWriter.
type digestWriter struct{ d *digester }

func (dw digestWriter) Write(p []byte) (int, error) {
	dw.d.update(p)
	return len(p), nil
}

