// Package backoff computes retry delays for the client's retry stage.
package backoff

import (
	"math/rand"
	"time"
)

// maxExponent caps the exponent so the float math cannot overflow into a
// negative duration.
const maxExponent = 30

// Delay returns the backoff for the given zero-based attempt: initial *
// multiplier^attempt, capped at max, with up to jitter (a fraction in [0,1])
// of random extra delay added.
func Delay(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxExponent {
		attempt = maxExponent
	}

	d := time.Duration(float64(initial) * Pow(multiplier, attempt))
	if d < 0 || d > max {
		d = max
	}

	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		extra := time.Duration(float64(d) * jitter * rand.Float64())
		if d+extra > max {
			d = max
		} else {
			d += extra
		}
	}
	return d
}

// Pow is an integer-exponent power without pulling in math.Pow's edge cases.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
