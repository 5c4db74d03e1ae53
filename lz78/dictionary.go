package lz78

// slotState tags what a dictionary slot currently holds, so that the
// sentinel codeword rootNode never has to be compared against real
// codeword values directly (see the Open Question decision in DESIGN.md).
type slotState uint8

const (
	slotEmpty slotState = iota // free, available for insertion
	slotRoot                   // parent is the empty phrase (ROOT_NODE)
	slotNode                   // parent is another slot's codeword
)

// dictionary is the LZ78 phrase trie, represented as an open-addressed hash
// table over three parallel arrays, grounded on the hash-table dictionary
// shape of razzie-go-doboz/dictionary.go generalized from a binary-tree
// match finder to direct open addressing keyed on (parent, symbol).
type dictionary struct {
	dictSize   uint64
	htSize     uint64
	compress   bool // true for the encoder, false for the decoder
	state      []slotState
	parent     []int64  // parent codeword, meaningful when state != slotEmpty
	symbol     []uint16 // edge label; EOFSymbol (256) only valid for the EOF seed
	next       []uint64 // encoder only: slot -> canonical codeword
	wordBuf    []byte   // reused output buffer for word()
}

// newDictionary allocates a dictionary for the given parameters. compress
// selects whether next[] is maintained.
func newDictionary(dictSize, htSize uint64, compress bool) (*dictionary, error) {
	if dictSize < minDictSize || dictSize > maxDictSize {
		return nil, ErrInvalidArgument
	}
	if htSize < dictSize || htSize > maxHTSize {
		return nil, ErrInvalidArgument
	}
	d := &dictionary{
		dictSize: dictSize,
		htSize:   htSize,
		compress: compress,
		state:    make([]slotState, htSize),
		parent:   make([]int64, htSize),
		symbol:   make([]uint16, htSize),
	}
	if compress {
		d.next = make([]uint64, htSize)
	}
	d.init()
	return d, nil
}

// init populates the alphabet seeds (slots 0..256) and, for the encoder,
// marks every other slot empty. It returns the next free codeword, 257.
func (d *dictionary) init() uint64 {
	for s := 0; s < 256; s++ {
		d.state[s] = slotRoot
		d.symbol[s] = uint16(s)
		if d.compress {
			d.next[s] = uint64(s)
		}
	}
	d.state[EOFSymbol] = slotRoot
	d.symbol[EOFSymbol] = EOFSymbol
	if d.compress {
		d.next[EOFSymbol] = EOFSymbol
		for i := uint64(minDictSize); i < d.htSize; i++ {
			d.state[i] = slotEmpty
		}
	}
	return minDictSize
}

// reinit discards every non-seed phrase and returns the next free codeword,
// 257. Both the encoder and the decoder call it on a full-dictionary flush.
func (d *dictionary) reinit() uint64 {
	for i := uint64(minDictSize); i < d.htSize; i++ {
		d.state[i] = slotEmpty
	}
	return minDictSize
}

// hash implements h(parent, symbol) = 257 + ((parent<<8|symbol) mod (htSize-257)).
func (d *dictionary) hash(parent int64, symbol uint16) uint64 {
	key := uint64(parent)<<8 | uint64(symbol)
	return minDictSize + key%(d.htSize-minDictSize)
}

// lookup resolves the phrase formed by extending current with symbol. If
// current is rootNode, this is the alphabet shortcut and always succeeds.
// Otherwise it linearly probes from hash(current, symbol), wrapping from
// htSize back to the end of the reserved prefix (never into it).
func (d *dictionary) lookup(current int64, symbol uint16) (found bool, slot uint64, err error) {
	if symbol > EOFSymbol {
		return false, 0, ErrInvalidArgument
	}
	if current == rootNode {
		return true, uint64(symbol), nil
	}
	if current < 0 || uint64(current) >= d.dictSize {
		return false, 0, ErrInvalidArgument
	}

	slot = d.hash(current, symbol)
	for {
		switch d.state[slot] {
		case slotEmpty:
			return false, slot, nil
		case slotNode:
			if d.parent[slot] == current && d.symbol[slot] == symbol {
				return true, slot, nil
			}
		}
		slot++
		if slot >= d.htSize {
			slot = minDictSize
		}
	}
}

// fill records a phrase at slot: extending current by symbol, assigned
// codeword nextCodeword (ignored by the decoder, which passes 0). If
// current is rootNode, the parent is left untouched — used by the decoder
// to defer-write the edge symbol of a slot it reserved on a prior
// iteration.
func (d *dictionary) fill(slot uint64, current int64, symbol uint16, nextCodeword uint64) error {
	if slot >= d.htSize {
		return ErrInvalidArgument
	}
	d.symbol[slot] = symbol
	if d.compress {
		d.next[slot] = nextCodeword
	}
	if current == rootNode {
		if d.state[slot] == slotEmpty {
			d.state[slot] = slotRoot
		}
		return nil
	}
	if current < 0 || uint64(current) >= d.dictSize {
		return ErrInvalidArgument
	}
	d.parent[slot] = current
	d.state[slot] = slotNode
	return nil
}

// codeword returns the canonical codeword of the phrase ending at slot
// (encoder only).
func (d *dictionary) codeword(slot uint64) (uint64, error) {
	if !d.compress || slot >= d.htSize || d.state[slot] == slotEmpty {
		return 0, ErrInvalidArgument
	}
	return d.next[slot], nil
}

// word walks parent[] from codeword back to the root, accumulating symbols,
// then reverses them into the dictionary's reusable internal buffer. The
// returned slice is only valid until the next call to word or firstSymbol.
func (d *dictionary) word(codeword uint64) ([]byte, error) {
	if codeword >= d.htSize || d.state[codeword] == slotEmpty {
		return nil, ErrCorrupt
	}
	buf := d.wordBuf[:0]
	cur := int64(codeword)
	for {
		if cur < 0 || uint64(cur) >= d.htSize || d.state[cur] == slotEmpty {
			return nil, ErrCorrupt
		}
		sym := d.symbol[cur]
		if sym == EOFSymbol && uint64(cur) != codeword {
			return nil, ErrCorrupt
		}
		if sym != EOFSymbol {
			buf = append(buf, byte(sym))
		}
		if d.state[cur] == slotRoot {
			break
		}
		cur = d.parent[cur]
	}
	d.wordBuf = buf
	reverseBytes(buf)
	return buf, nil
}

// firstSymbol returns the first symbol of the phrase ending at codeword,
// i.e. the symbol of the node closest to the root, without allocating or
// disturbing the shared word buffer.
func (d *dictionary) firstSymbol(codeword uint64) (uint16, error) {
	if codeword >= d.htSize || d.state[codeword] == slotEmpty {
		return 0, ErrCorrupt
	}
	cur := int64(codeword)
	var sym uint16
	for {
		if cur < 0 || uint64(cur) >= d.htSize || d.state[cur] == slotEmpty {
			return 0, ErrCorrupt
		}
		sym = d.symbol[cur]
		if d.state[cur] == slotRoot {
			break
		}
		cur = d.parent[cur]
	}
	return sym, nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
