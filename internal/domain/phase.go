package domain

import "math"

// WrapPhase reduces a raw phase value into (-pi, pi].
//
// The reduction is modulo 2*pi into [0, 2*pi) first, then values above pi get
// 2*pi subtracted. This mirrors how an interferogram folds absolute phase and
// is not equivalent to clamping: a raw value of 1.5*pi wraps to -0.5*pi.
func WrapPhase(raw float64) float64 {
	w := math.Mod(raw, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	if w > math.Pi {
		w -= 2 * math.Pi
	}
	return w
}
