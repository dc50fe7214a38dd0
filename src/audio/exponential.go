package audio

// ----- Exponential Glide ----- //

// renderExponential runs the one-pole recursion
//
//	ysum += kf * (expTargetB - y)
//	y = ysum >> 32
//
// four samples per pass. expTargetB lies beyond expTarget, so the recursion
// crosses expTarget in finite time and the crossing samples are clamped.
func (d *DC) renderExponential(w *blockWriter) {
	shift := d.expShift
	var t [4]int32
	for w.remaining() > 0 {
		prev := d.expMagnitude
		for i := range t {
			d.ysum += int64(d.kf) * (int64(d.expTargetB) - int64(prev))
			t[i] = int32(d.ysum >> 32)
			prev = t[i]
		}
		d.expMagnitude = t[3]

		// samples move monotonically, so once one has not crossed the
		// earlier ones have not either
		settled := d.crossed(t[3])
		for i := 3; i >= 0 && d.crossed(t[i]); i-- {
			t[i] = d.expTarget
		}
		w.putWord(pack16(sampleOf(t[1]<<shift), sampleOf(t[0]<<shift)))
		w.putWord(pack16(sampleOf(t[3]<<shift), sampleOf(t[2]<<shift)))
		if settled {
			d.settleAt(d.expTarget << shift)
			d.commitMode()
			w.fillRest(sampleOf(d.expTarget << shift))
			return
		}
	}
}

func (d *DC) crossed(v int32) bool {
	return (int64(d.expTarget)-int64(v))*int64(d.stepDirection) < 0
}
