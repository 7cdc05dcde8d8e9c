package core

import (
	"math"

	"github.com/huangsam/revscore/schema"
)

// Rating blend constants. The factors are applied one at a time, in this order.
const (
	blendCeiling = 5.0
	blendGain    = 1.5
	blendUnit    = 0.1
	blendDamping = 0.95
)

// AdjustForSentiment shifts the pair toward the sentiment polarity.
// Positive text gains quality and loses importance; negative text the reverse.
// Any other label leaves the pair untouched.
func AdjustForSentiment(importance, quality float64, v schema.SentimentVerdict) (float64, float64) {
	c := clampRange(v.Confidence, 0, 1)
	switch v.Label {
	case schema.Positive:
		quality = math.Min(quality+2*c, schema.MaxQuality)
		importance = math.Max(importance-c, schema.MinImportance)
	case schema.Negative:
		importance = math.Min(importance+2*c, schema.MaxImportance)
		quality = math.Max(quality-c, schema.MinQuality)
	}
	return importance, quality
}

// BlendRating pulls quality toward the reviewer's own site rating.
//
// The pull is damped by |5 - |diff||, so it fades as the disagreement approaches
// 5 points and grows again beyond that.
func BlendRating(quality, rating float64) float64 {
	diff := rating - quality
	sf := math.Abs(blendCeiling-math.Abs(diff)) * blendGain * blendUnit
	// The explicit conversion stops the compiler from fusing into an FMA.
	return quality + float64((diff*blendDamping)*sf)
}

// Clamp bounds importance to [0,5] and quality to [1,5]. NaN becomes the lower bound.
func Clamp(importance, quality float64) (float64, float64) {
	return clampRange(importance, schema.MinImportance, schema.MaxImportance),
		clampRange(quality, schema.MinQuality, schema.MaxQuality)
}

func clampRange(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
