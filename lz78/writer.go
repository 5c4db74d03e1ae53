package lz78

import "io"

// Writer is the LZ78 encoder (component D): an io.WriteCloser that accepts
// plaintext bytes and emits a variable-width codeword stream to an
// underlying BitWriter. Grounded on the bzip2.Writer shape of this pack:
// an InputOffset/OutputOffset-tracking Write sink backed by a persistent
// err field and a Reset method, generalized from bzip2's block-at-a-time
// accumulation to LZ78's byte-at-a-time trie walk.
type Writer struct {
	InputOffset  int64 // total bytes accepted by Write
	OutputOffset int64 // total bytes flushed to the underlying BitWriter

	bw   *BitWriter
	dict *dictionary
	err  error

	dictSize uint64
	htSize   uint64

	cur  int64  // codeword of the phrase matched so far; ROOT_NODE if empty
	n    uint64 // next codeword to be assigned
	bits uint   // current emission width

	closed bool
}

// NewWriter constructs an encoder over bw using the given dictionary and
// hash-table sizes. The caller is responsible for writing any metadata
// prefix to bw before the first codeword is emitted; Writer only ever
// touches the codeword stream.
func NewWriter(bw *BitWriter, dictSize, htSize uint64) (*Writer, error) {
	dict, err := newDictionary(dictSize, htSize, true)
	if err != nil {
		return nil, err
	}
	zw := &Writer{bw: bw, dict: dict, dictSize: dictSize, htSize: htSize}
	zw.reset()
	return zw, nil
}

func (zw *Writer) reset() {
	zw.cur = rootNode
	zw.n = zw.dict.init()
	zw.bits = initialBits
}

// Write feeds p through the encoder's phrase-matching loop. It never emits
// the EOF codeword itself; that only happens on Close.
func (zw *Writer) Write(p []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	if zw.closed {
		return 0, ErrClosed
	}
	defer errRecover(&zw.err)

	for _, c := range p {
		zw.step(uint16(c))
	}
	zw.InputOffset += int64(len(p))
	zw.OutputOffset = zw.bw.Offset()
	return len(p), zw.err
}

// step runs one iteration of §4.D's main loop body (steps 3's match/no-match
// branches) for a single input byte c.
func (zw *Writer) step(c uint16) {
	found, slot, err := zw.dict.lookup(zw.cur, c)
	if err != nil {
		panic(err)
	}
	if found {
		cw, err := zw.dict.codeword(slot)
		if err != nil {
			panic(err)
		}
		zw.cur = int64(cw)
		return
	}

	zw.emit(uint64(zw.cur))
	if err := zw.dict.fill(slot, zw.cur, c, zw.n); err != nil {
		panic(err)
	}
	zw.n++
	if isPowerOfTwo(zw.n) {
		zw.bits++
	}
	if zw.n >= zw.dictSize {
		zw.n = zw.dict.reinit()
		zw.bits = initialBits
	}

	found, slot, err = zw.dict.lookup(rootNode, c)
	if err != nil || !found {
		panic(ErrCorrupt)
	}
	cw, err := zw.dict.codeword(slot)
	if err != nil {
		panic(err)
	}
	zw.cur = int64(cw)
}

func (zw *Writer) emit(codeword uint64) {
	if _, err := zw.bw.Write(codeword, zw.bits); err != nil {
		panic(err)
	}
}

// Close emits the final phrase codeword followed by the EOF codeword, then
// flushes and (unless writing to an ambient standard stream) closes the
// underlying BitWriter.
func (zw *Writer) Close() error {
	if zw.closed {
		return zw.err
	}
	zw.closed = true
	if zw.err != nil {
		return zw.err
	}
	defer errRecover(&zw.err)

	// cur is still ROOT_NODE only when Write was never called with any
	// bytes; there is no pending phrase to emit in that case.
	if zw.cur != rootNode {
		zw.emit(uint64(zw.cur))
		// The decoder, on reading that codeword, advances its counter and
		// width as if a phrase had been inserted; mirror that so the EOF
		// codeword is written at the width the decoder will read it with.
		if n := zw.n + 1; n >= zw.dictSize {
			zw.bits = initialBits
		} else if isPowerOfTwo(n) {
			zw.bits++
		}
	}
	found, slot, err := zw.dict.lookup(rootNode, EOFSymbol)
	if err != nil || !found {
		panic(ErrCorrupt)
	}
	cw, err := zw.dict.codeword(slot)
	if err != nil {
		panic(err)
	}
	zw.emit(cw)

	if cerr := zw.bw.Close(); zw.err == nil {
		zw.err = cerr
	}
	zw.OutputOffset = zw.bw.Offset()
	return zw.err
}

var _ io.WriteCloser = (*Writer)(nil)
