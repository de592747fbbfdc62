// Package overlap decides whether the moving object sits on the target.
package overlap

import "math"

// DefaultTolerance is the fraction of the width the centres may differ by.
const DefaultTolerance = 0.2

// IsDocked reports whether |moving-target| < tolerance*width.
func IsDocked(moving, target, width, tolerance float64) bool {
	return math.Abs(moving-target) < tolerance*width
}
