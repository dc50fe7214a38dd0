package audio

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinearDC(p BlockPool, from, to, increment int32) *DC {
	d := NewDC(p)
	d.mode = GlideLinear
	d.pendingMode = GlideLinear
	d.magnitude = from
	d.target = to
	d.increment = increment
	d.state = dcTransitioning
	return d
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// checkRamp verifies the stream moves monotonically from `from` toward `to`,
// equals `to` from sample `arrive` on and never passes it.
func checkRamp(t *testing.T, out []int16, from, to int32, arrive int) {
	t.Helper()
	lo, hi := sampleOf(from), sampleOf(to)
	dir := 1
	if hi < lo {
		lo, hi = hi, lo
		dir = -1
	}
	prev := sampleOf(from)
	for i, s := range out {
		if i+1 >= arrive {
			if s != sampleOf(to) {
				t.Fatalf("sample %d = %d, want target %d", i, s, sampleOf(to))
			}
			continue
		}
		if s < lo || s > hi {
			t.Fatalf("sample %d = %d out of [%d, %d]", i, s, lo, hi)
		}
		if (int(s)-int(prev))*dir < 0 {
			t.Fatalf("sample %d = %d moves away from target (prev %d)", i, s, prev)
		}
		prev = s
	}
}

func TestLinearRampScenarios(t *testing.T) {
	cases := []struct {
		name                string
		from, to, increment int32
		arrive              int
	}{
		{"up", 0, 1000, 100, 10},
		{"down", 0, -500, -50, 10},
		{"not divisible", 0, 1050, 100, 11},
		{"odd count", 0, 300, 100, 3},
		{"odd count not divisible", 0, 350, 100, 4},
		{"across blocks", 0, 1000, 1, 1000},
		{"negative start", -2000, 3000, 7, 715},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newTestPool()
			d := newLinearDC(p, c.from<<16, c.to<<16, c.increment<<16)
			renderBlocks(t, d, c.arrive/BlockSamples+2)
			checkRamp(t, p.out, c.from<<16, c.to<<16, c.arrive)
			for i := 0; i+1 < c.arrive; i++ {
				want := c.from + int32(i+1)*c.increment
				if (c.to-c.from)%c.increment == 0 {
					require.Equal(t, int16(want), p.out[i], "sample %d", i)
				}
			}
			assert.False(t, d.Transitioning())
			assert.Equal(t, c.to<<16, d.magnitude)
		})
	}
}

func TestLinearRampFirstScenarioExact(t *testing.T) {
	p := newTestPool()
	d := newLinearDC(p, 0, 1000<<16, 100<<16)
	renderBlocks(t, d, 1)
	want := []int16{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000, 1000, 1000}
	assert.Equal(t, want, p.out[:len(want)])
	for _, s := range p.out {
		assert.LessOrEqual(t, s, int16(1000))
	}
}

func TestLinearRampAlreadyAtTarget(t *testing.T) {
	p := newTestPool()
	d := newLinearDC(p, 500<<16, 500<<16, 10<<16)
	renderBlocks(t, d, 1)
	for _, s := range p.out {
		require.Equal(t, int16(500), s)
	}
	assert.False(t, d.Transitioning())
}

func TestLinearRampEndingOnBlockBoundary(t *testing.T) {
	p := newTestPool()
	d := newLinearDC(p, 0, BlockSamples<<16, 1<<16)
	renderBlocks(t, d, 1)
	assert.Equal(t, int16(BlockSamples), p.out[BlockSamples-1])
	assert.True(t, d.Transitioning())

	renderBlocks(t, d, 1)
	for _, s := range p.last() {
		require.Equal(t, int16(BlockSamples), s)
	}
	assert.False(t, d.Transitioning())
}

func TestLinearRampRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 200; n++ {
		from := int32(r.Int63n(2*levelFullScale) - levelFullScale)
		to := int32(r.Int63n(2*levelFullScale) - levelFullScale)
		if from == to {
			continue
		}
		steps := int64(r.Intn(2000) + 1)
		increment := int32((int64(to) - int64(from)) / steps)
		if increment == 0 {
			continue
		}
		dist, step := abs64(int64(to)-int64(from)), abs64(int64(increment))
		arrive := int((dist + step - 1) / step)

		p := newTestPool()
		d := newLinearDC(p, from, to, increment)
		renderBlocks(t, d, arrive/BlockSamples+2)
		checkRamp(t, p.out, from, to, arrive)
		require.False(t, d.Transitioning())
	}
}

func TestLinearSettleSyncsExponentialPath(t *testing.T) {
	p := newTestPool()
	d := newLinearDC(p, 0, 1000<<16, 100<<16)
	require.NoError(t, d.SetMode(GlideExponential))
	renderBlocks(t, d, 2)
	assert.Equal(t, GlideExponential, d.Mode())
	for _, s := range p.last() {
		require.Equal(t, int16(1000), s)
	}
	assert.Equal(t, int32(1000<<16)>>d.expShift, d.expMagnitude)
}

func TestLinearShortFullScaleGlide(t *testing.T) {
	for _, tc := range []struct {
		name     string
		from, to float64
		ms       float64
	}{
		{"up 0.02ms", -1, 1, 0.02},
		{"up 0.03125ms", -1, 1, 0.03125},
		{"up 0.04ms", -1, 1, 0.04},
		{"up 0.05ms", -1, 1, 0.05},
		{"down 0.02ms", 1, -1, 0.02},
		{"down 0.03125ms", 1, -1, 0.03125},
		{"down 0.04ms", 1, -1, 0.04},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPool()
			d := NewDC(p)
			d.Amplitude(tc.from)
			require.NoError(t, d.SetMode(GlideLinear))
			d.Glide(tc.to, tc.ms)
			require.True(t, d.Transitioning())

			dir := int64(1)
			if tc.to < tc.from {
				dir = -1
			}
			assert.Equal(t, dir, sign64(int64(d.increment)))
			assert.Equal(t, dir, sign64(int64(d.target)-int64(d.magnitude)))

			start := sampleOf(levelToFixed(tc.from))
			end := sampleOf(levelToFixed(tc.to))
			renderBlocks(t, d, 1)
			out := p.last()
			first := int64(out[0])
			assert.Greater(t, (first-int64(start))*dir, int64(0), "first sample did not leave the start")
			assert.Greater(t, (int64(end)-first)*dir, int64(0), "first sample jumped to the target")
			for i := 1; i < len(out); i++ {
				require.GreaterOrEqual(t, (int64(out[i])-int64(out[i-1]))*dir, int64(0), "sample %d moved backwards", i)
			}
			assert.Equal(t, end, out[len(out)-1])
			assert.False(t, d.Transitioning())
		})
	}
}

func sign64(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
