package audio

// ----- Block ----- //

// BlockSamples is the number of samples rendered per block.
const BlockSamples = 128

const blockWords = BlockSamples / 2

// Block is a fixed-length run of 16-bit samples packed two per word.
// Word i carries sample 2i in the low half and sample 2i+1 in the high half.
type Block struct {
	words [blockWords]uint32
}

// Sample returns the i-th sample of the block.
func (b *Block) Sample(i int) int16 {
	w := b.words[i/2]
	if i%2 == 0 {
		return unpackLow(w)
	}
	return unpackHigh(w)
}

// Samples unpacks the block into dst and returns the number of samples written.
func (b *Block) Samples(dst []int16) int {
	n := BlockSamples
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = b.Sample(i)
	}
	return n
}

func (b *Block) fill(word uint32) {
	for i := range b.words {
		b.words[i] = word
	}
}

// blockWriter appends samples to a block one at a time, packing pairs.
type blockWriter struct {
	block *Block
	n     int
	low   int16
}

func (w *blockWriter) remaining() int {
	return BlockSamples - w.n
}

func (w *blockWriter) put(s int16) {
	if w.n%2 == 0 {
		w.low = s
	} else {
		w.block.words[w.n/2] = pack16(s, w.low)
	}
	w.n++
}

func (w *blockWriter) putWord(word uint32) {
	w.block.words[w.n/2] = word
	w.n += 2
}

// fillRest writes s into every remaining slot.
func (w *blockWriter) fillRest(s int16) {
	if w.n%2 == 1 {
		w.put(s)
	}
	word := pack16(s, s)
	for w.n < BlockSamples {
		w.putWord(word)
	}
}

// ----- Pool ----- //

// BlockPool hands out blocks without blocking and takes them back.
type BlockPool interface {
	// Allocate returns nil when no block is available.
	Allocate() *Block
	Transmit(b *Block)
	Release(b *Block)
}

// Pool is a fixed-capacity BlockPool. Transmit passes the block to the sink
// synchronously; the sink must copy what it keeps.
type Pool struct {
	free chan *Block
	sink func(*Block)
}

var _ BlockPool = (*Pool)(nil)

// NewPool preallocates capacity blocks.
func NewPool(capacity int, sink func(*Block)) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool{
		free: make(chan *Block, capacity),
		sink: sink,
	}
	for i := 0; i < capacity; i++ {
		p.free <- &Block{}
	}
	return p
}

// Allocate ...
func (p *Pool) Allocate() *Block {
	select {
	case b := <-p.free:
		return b
	default:
		return nil
	}
}

// Transmit ...
func (p *Pool) Transmit(b *Block) {
	if b == nil || p.sink == nil {
		return
	}
	p.sink(b)
}

// Release ...
func (p *Pool) Release(b *Block) {
	if b == nil {
		return
	}
	select {
	case p.free <- b:
	default:
		// more releases than allocations; drop the extra block
	}
}

// Available returns the number of free blocks.
func (p *Pool) Available() int {
	return len(p.free)
}
