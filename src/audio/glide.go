package audio

import (
	"fmt"
	"math"
	"sync"
)

// ----- Glide Mode ----- //

// GlideMode selects the shape of a transition.
type GlideMode int

const (
	GlideFlat GlideMode = iota
	GlideLinear
	GlideExponential
)

var glideModeNames = []string{
	GlideFlat:        "flat",
	GlideLinear:      "linear",
	GlideExponential: "exponential",
}

func (m GlideMode) String() string {
	if m < 0 || int(m) >= len(glideModeNames) {
		return fmt.Sprintf("GlideMode(%d)", int(m))
	}
	return glideModeNames[m]
}

// GlideModeFromString ...
func GlideModeFromString(s string) (GlideMode, error) {
	for i, name := range glideModeNames {
		if name == s {
			return GlideMode(i), nil
		}
	}
	return GlideFlat, fmt.Errorf("unknown glide mode %q", s)
}

// ----- Glide State ----- //

type dcState int

const (
	dcSteady dcState = iota
	dcTransitioning
)

// remaining distance / overshoot of the exponential working target
const expSettleRatio = 64

// DC is a constant level generator that glides between levels.
// Update renders one block; the other methods configure the next glide.
type DC struct {
	sync.Mutex
	pool       BlockPool
	sampleRate float64
	expShift   uint

	state       dcState
	mode        GlideMode
	pendingMode GlideMode

	// linear path, emitted as the upper 16 bits
	magnitude int32
	target    int32
	increment int32

	// exponential path, linear level >> expShift
	expMagnitude  int32
	expTarget     int32
	expTargetB    int32
	kf            uint32 // Q32
	ysum          int64
	stepDirection int32
}

type dcConfig struct {
	sampleRate float64
	expShift   uint
}

// Option configures a DC.
type Option func(*dcConfig)

// WithSampleRate sets the rate used to convert glide times to samples.
func WithSampleRate(sampleRate float64) Option {
	return func(c *dcConfig) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

// WithExpShift sets the precision shift of the exponential path.
// Shifts below 2 would overflow the 64-bit recursion accumulator.
func WithExpShift(shift uint) Option {
	return func(c *dcConfig) {
		if shift >= 2 && shift <= 12 {
			c.expShift = shift
		}
	}
}

// NewDC returns a generator at level 0 in flat mode.
func NewDC(pool BlockPool, opts ...Option) *DC {
	cfg := dcConfig{
		sampleRate: sampleRate,
		expShift:   defaultExpShift,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	d := &DC{
		pool:       pool,
		sampleRate: cfg.sampleRate,
		expShift:   cfg.expShift,
	}
	d.settleAt(0)
	return d
}

// Amplitude jumps to level immediately.
func (d *DC) Amplitude(level float64) {
	d.Lock()
	defer d.Unlock()
	d.settleAt(levelToFixed(level))
}

// Glide starts a transition to level. For linear glides milliseconds is the
// ramp duration, for exponential glides it is the time constant.
func (d *DC) Glide(level float64, milliseconds float64) {
	d.Lock()
	defer d.Unlock()
	t := levelToFixed(level)
	if d.state == dcSteady {
		// no glide in flight, the queued shape can take effect here
		d.commitMode()
	}
	if milliseconds <= 0 || d.mode == GlideFlat {
		d.settleAt(t)
		return
	}
	cur := d.current()
	if cur == t {
		d.settleAt(t)
		return
	}
	samples := milliseconds * d.sampleRate / 1000
	d.armLinear(cur, t, samples)
	d.armExponential(cur, t, samples)
	d.state = dcTransitioning
}

// SetMode queues a glide shape. It takes effect once no glide is in flight.
func (d *DC) SetMode(mode GlideMode) error {
	if mode < GlideFlat || mode > GlideExponential {
		return fmt.Errorf("invalid glide mode %d", int(mode))
	}
	d.Lock()
	d.pendingMode = mode
	d.Unlock()
	return nil
}

// Level returns the current output level in [-1, 1].
func (d *DC) Level() float64 {
	d.Lock()
	defer d.Unlock()
	return fixedToLevel(d.current())
}

// Mode returns the shape governing rendering.
func (d *DC) Mode() GlideMode {
	d.Lock()
	defer d.Unlock()
	return d.mode
}

// PendingMode returns the most recently requested shape.
func (d *DC) PendingMode() GlideMode {
	d.Lock()
	defer d.Unlock()
	return d.pendingMode
}

// Transitioning reports whether a glide is in flight.
func (d *DC) Transitioning() bool {
	d.Lock()
	defer d.Unlock()
	return d.state == dcTransitioning
}

// Status returns the level, the shape and whether a glide is in flight as
// one consistent reading.
func (d *DC) Status() (level float64, mode GlideMode, transitioning bool) {
	d.Lock()
	defer d.Unlock()
	return fixedToLevel(d.current()), d.mode, d.state == dcTransitioning
}

func (d *DC) commitMode() {
	d.mode = d.pendingMode
}

// current returns the level in the linear representation.
func (d *DC) current() int32 {
	if d.mode == GlideExponential {
		return d.expMagnitude << d.expShift
	}
	return d.magnitude
}

// settleAt makes v the steady level of both paths.
func (d *DC) settleAt(v int32) {
	d.magnitude = v
	d.target = v
	d.increment = 0
	e := v >> d.expShift
	d.expMagnitude = e
	d.expTarget = e
	d.expTargetB = e
	d.ysum = int64(e) << 32
	d.stepDirection = 0
	d.state = dcSteady
}

func (d *DC) armLinear(cur int32, t int32, samples float64) {
	if samples < 1 {
		samples = 1
	}
	// a full-scale distance covered in under two samples exceeds int32
	inc := int64(float64(int64(t)-int64(cur)) / samples)
	switch {
	case inc > math.MaxInt32:
		inc = math.MaxInt32
	case inc < math.MinInt32:
		inc = math.MinInt32
	case inc == 0:
		inc = 1
		if t < cur {
			inc = -1
		}
	}
	d.magnitude = cur
	d.target = t
	d.increment = int32(inc)
}

func (d *DC) armExponential(cur int32, t int32, samples float64) {
	e := cur >> d.expShift
	et := t >> d.expShift
	dir := int64(1)
	if et < e {
		dir = -1
	}
	dist := (int64(et) - int64(e)) * dir
	margin := dist / expSettleRatio
	if lsb := int64(1) << (16 - d.expShift); margin < lsb {
		margin = lsb
	}
	b := int64(et) + dir*margin
	if b > math.MaxInt32 {
		b = math.MaxInt32
	} else if b < math.MinInt32 {
		b = math.MinInt32
	}
	d.expMagnitude = e
	d.expTarget = et
	d.expTargetB = int32(b)
	d.stepDirection = int32(dir)
	d.kf = expCoefficient(samples)
	d.ysum = int64(e) << 32
}

// expCoefficient returns the Q32 one-pole coefficient for a time constant in samples.
func expCoefficient(samples float64) uint32 {
	if samples < 1 {
		samples = 1
	}
	k := (1 - math.Exp(-1/samples)) * (1 << 32)
	if k < 1 {
		return 1
	}
	if k >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(k)
}
