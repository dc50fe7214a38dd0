package audio

// ----- Linear Ramp ----- //

func (d *DC) renderLinear(w *blockWriter) {
	count := rampCount(d.target, d.magnitude, d.increment)
	if count >= int32(w.remaining()) {
		// the target is not reached in this block
		for w.remaining() > 0 {
			d.magnitude += d.increment
			t1 := d.magnitude
			d.magnitude += d.increment
			w.putWord(packTop(d.magnitude, t1))
		}
		return
	}
	for ; count >= 2; count -= 2 {
		d.magnitude += d.increment
		t1 := d.magnitude
		d.magnitude += d.increment
		w.putWord(packTop(d.magnitude, t1))
	}
	if count == 1 {
		w.putWord(packTop(d.target, d.magnitude+d.increment))
	}
	d.settleAt(d.target)
	d.commitMode()
	w.fillRest(sampleOf(d.target))
}
