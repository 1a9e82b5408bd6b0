package audio

import (
	"math/bits"

	"github.com/mewkiz/flac/frame"
)

// maxFixedOrder is the highest fixed-polynomial predictor order FLAC defines.
const maxFixedOrder = 4

// Rice parameter limits for the two residual coding methods. The all-ones
// value of each width is reserved as an escape code.
const (
	maxRice1Param = 14
	maxRice2Param = 30
)

// encodeSubframe picks the smallest encoding for one channel of a block:
// constant when every sample is equal, otherwise the cheapest fixed
// predictor with a single Rice partition, or verbatim when no predictor
// beats it.
func encodeSubframe(samples []int32, bps int) *frame.Subframe {
	n := len(samples)
	sub := &frame.Subframe{
		SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
		Samples:   samples,
		NSamples:  n,
	}
	if isConstant(samples) {
		sub.Pred = frame.PredConstant
		return sub
	}

	best := uint64(n * bps)
	for order := 0; order <= maxFixedOrder && order < n; order++ {
		param, cost := riceCost(fixedResiduals(samples, order))
		// Warm-up samples, coding method, partition order and parameter.
		cost += uint64(order*bps) + 2 + 4 + 5
		if cost >= best {
			continue
		}
		best = cost
		sub.Pred = frame.PredFixed
		sub.Order = order
		sub.ResidualCodingMethod = frame.ResidualCodingMethodRice1
		if param > maxRice1Param {
			sub.ResidualCodingMethod = frame.ResidualCodingMethodRice2
		}
		sub.RiceSubframe = &frame.RiceSubframe{
			Partitions: []frame.RicePartition{{Param: param}},
		}
	}
	return sub
}

func isConstant(samples []int32) bool {
	for _, s := range samples[1:] {
		if s != samples[0] {
			return false
		}
	}
	return true
}

// fixedResiduals returns the prediction errors of the fixed polynomial
// predictor of the given order, skipping the order warm-up samples.
func fixedResiduals(samples []int32, order int) []int32 {
	coeffs := frame.FixedCoeffs[order]
	residuals := make([]int32, 0, len(samples)-order)
	for i := order; i < len(samples); i++ {
		var pred int64
		for j, c := range coeffs {
			pred += int64(c) * int64(samples[i-j-1])
		}
		residuals = append(residuals, samples[i]-int32(pred))
	}
	return residuals
}

// riceCost returns the Rice parameter that codes residuals in the fewest
// bits, and that bit count.
func riceCost(residuals []int32) (uint, uint64) {
	if len(residuals) == 0 {
		return 0, 0
	}

	folded := make([]uint32, len(residuals))
	var sum uint64
	for i, r := range residuals {
		folded[i] = zigzag(r)
		sum += uint64(folded[i])
	}

	// The optimum sits next to log2 of the mean folded residual.
	guess := bits.Len64(sum/uint64(len(folded))) - 1
	bestParam, bestCost := uint(0), ^uint64(0)
	for k := guess - 1; k <= guess+1; k++ {
		if k < 0 || k > maxRice2Param {
			continue
		}
		cost := uint64(len(folded)) * uint64(k+1)
		for _, f := range folded {
			cost += uint64(f >> uint(k))
		}
		if cost < bestCost {
			bestParam, bestCost = uint(k), cost
		}
	}
	return bestParam, bestCost
}

// zigzag maps signed residuals onto unsigned values the way FLAC's Rice
// coder does: 0, -1, 1, -2, 2 become 0, 1, 2, 3, 4.
func zigzag(x int32) uint32 {
	return uint32(x<<1) ^ uint32(x>>31)
}
