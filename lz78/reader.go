package lz78

import "io"

// Reader is the LZ78 decoder (component E): an io.Reader that pulls
// codewords from an underlying BitReader and emits the decoded plaintext.
// Grounded on the bzip2.Reader shape of this pack: a pull-based Read that
// drains an internal pending buffer and refills it one decoded unit (here,
// one phrase) at a time.
type Reader struct {
	InputOffset  int64 // total bytes consumed from the underlying BitReader
	OutputOffset int64 // total bytes emitted from Read

	br   *BitReader
	dict *dictionary
	err  error

	dictSize uint64
	htSize   uint64

	n     uint64 // next codeword to be assigned
	bits  uint   // current fetch width
	first bool   // true until the first phrase has been materialized

	pending []byte // undelivered bytes of the phrase materialized this step
	done    bool   // true once the EOF codeword has been consumed
}

// NewReader constructs a decoder over br using the given dictionary and
// hash-table sizes. The caller must have already consumed any metadata
// prefix (and in particular resolved dict_size) before calling this.
func NewReader(br *BitReader, dictSize, htSize uint64) (*Reader, error) {
	dict, err := newDictionary(dictSize, htSize, false)
	if err != nil {
		return nil, err
	}
	zr := &Reader{br: br, dict: dict, dictSize: dictSize, htSize: htSize}
	zr.reset()
	return zr, nil
}

func (zr *Reader) reset() {
	zr.n = zr.dict.init()
	zr.bits = initialBits
	zr.first = true
}

// Read emits decoded bytes into p, decoding additional phrases from the
// codeword stream as needed.
func (zr *Reader) Read(p []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	defer errRecover(&zr.err)

	for len(zr.pending) == 0 {
		if zr.done {
			return 0, io.EOF
		}
		zr.decodeStep()
	}

	n := copy(p, zr.pending)
	zr.pending = zr.pending[n:]
	zr.OutputOffset += int64(n)
	return n, zr.err
}

// decodeStep runs one iteration of §4.E's main loop, materializing the next
// phrase into zr.pending, or setting zr.done on the EOF codeword.
func (zr *Reader) decodeStep() {
	var raw uint64
	got, err := zr.br.Read(&raw, zr.bits)
	if err != nil {
		panic(err)
	}
	if got != int(zr.bits) {
		panic(ErrCorrupt)
	}
	zr.InputOffset = zr.br.Offset()
	cur := int64(raw)

	if raw == EOFSymbol {
		zr.done = true
		return
	}

	c, err := zr.dict.firstSymbol(uint64(cur))
	if err != nil {
		panic(err)
	}
	if c == EOFSymbol {
		panic(ErrCorrupt)
	}

	if !zr.first {
		// Complete the slot reserved on the previous iteration: its parent
		// was fixed then, only the edge symbol was pending.
		if err := zr.dict.fill(zr.n, rootNode, c, 0); err != nil {
			panic(err)
		}
		zr.n++
		if isPowerOfTwo(zr.n + 1) {
			zr.bits++
		}
	}

	word, err := zr.dict.word(uint64(cur))
	if err != nil {
		panic(err)
	}
	zr.pending = append(zr.pending[:0:0], word...)

	if zr.n+1 >= zr.dictSize {
		zr.n = zr.dict.reinit()
		zr.bits = initialBits
		zr.first = true
		return
	}

	if err := zr.dict.fill(zr.n, cur, 0, 0); err != nil {
		panic(err)
	}
	zr.first = false
}

var _ io.Reader = (*Reader)(nil)
