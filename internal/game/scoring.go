package game

import "math"

// MaxPoints is awarded for a correct answer given instantly.
const MaxPoints = 1000

// Score returns the points for one answer. A correct answer earns at least
// half of MaxPoints plus a bonus that shrinks linearly to zero at the limit.
func Score(isCorrect bool, elapsedMs, limitMs int64) int {
	if !isCorrect {
		return 0
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}

	ratio := 0.0
	if limitMs > 0 {
		ratio = math.Max(0, 1-float64(elapsedMs)/float64(limitMs))
	}
	return int(math.Round(MaxPoints * (0.5 + 0.5*ratio)))
}
