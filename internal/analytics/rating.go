package analytics

// Rating buckets a 0..100 symmetry score.
type Rating string

const (
	RatingGood    Rating = "good"
	RatingCaution Rating = "caution"
	RatingPoor    Rating = "poor"
)

const (
	goodThreshold    = 95.0
	cautionThreshold = 85.0
)

// rateEpsilon absorbs float noise such as 94.99999999999999 from 1.9/2.0*100
// without moving the boundary for genuinely lower scores.
const rateEpsilon = 1e-9

// Rate maps a score onto good (>=95), caution (>=85) or poor.
func Rate(score float64) Rating {
	switch {
	case score >= goodThreshold-rateEpsilon:
		return RatingGood
	case score >= cautionThreshold-rateEpsilon:
		return RatingCaution
	default:
		return RatingPoor
	}
}
