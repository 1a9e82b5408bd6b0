package audio

import "math"

// fullScale returns 2^(bits-1), the magnitude that maps to 1.0.
func fullScale(bits int) float64 {
	return float64(int64(1) << (bits - 1))
}

// quantize converts a float sample to a signed integer of the given bit depth,
// clamping to the representable range.
func quantize(v float32, bits int) int32 {
	fs := fullScale(bits)
	s := math.Round(float64(v) * fs)
	if s > fs-1 {
		s = fs - 1
	} else if s < -fs {
		s = -fs
	}
	return int32(s)
}
