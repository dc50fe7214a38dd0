package audio

import "math"

// ----- Fixed Point ----- //

const (
	// full scale of the linear accumulator; the emitted sample is its upper 16 bits
	levelFullScale = 0x7FFF0000
	// default shift between the linear and the exponential representation
	defaultExpShift = 2
)

// pack16 concatenates two signed 16-bit samples into one transport word.
func pack16(high int16, low int16) uint32 {
	return uint32(uint16(high))<<16 | uint32(uint16(low))
}

// packTop packs the upper halves of two 32-bit accumulators.
func packTop(high int32, low int32) uint32 {
	return uint32(high)&0xFFFF0000 | uint32(low)>>16
}

func unpackLow(word uint32) int16 {
	return int16(uint16(word))
}

func unpackHigh(word uint32) int16 {
	return int16(uint16(word >> 16))
}

// rampCount returns (target - current) / increment saturated to the int32 range.
// A zero increment never arrives and reports MaxInt32.
func rampCount(target int32, current int32, increment int32) int32 {
	if increment == 0 {
		return math.MaxInt32
	}
	q := (int64(target) - int64(current)) / int64(increment)
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	if q < math.MinInt32 {
		return math.MinInt32
	}
	return int32(q)
}

func levelToFixed(level float64) int32 {
	return int32(clampLevel(level) * levelFullScale)
}

func fixedToLevel(v int32) float64 {
	return float64(v) / levelFullScale
}

func sampleOf(v int32) int16 {
	return int16(v >> 16)
}
