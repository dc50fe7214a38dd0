package audio

// ----- Block Renderer ----- //

// Update renders one block and hands it to the pool. It returns false and
// leaves the generator untouched when the pool has no block available.
func (d *DC) Update() bool {
	b := d.pool.Allocate()
	if b == nil {
		return false
	}
	defer d.pool.Release(b)

	d.Lock()
	d.render(b)
	d.Unlock()

	d.pool.Transmit(b)
	return true
}

func (d *DC) render(b *Block) {
	w := &blockWriter{block: b}
	switch {
	case d.state == dcSteady:
		d.commitMode()
		s := sampleOf(d.current())
		b.fill(pack16(s, s))
	case d.mode != GlideExponential:
		d.renderLinear(w)
	default:
		d.renderExponential(w)
	}
}
