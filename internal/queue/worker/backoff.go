package worker

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// ExponentialBackoff doubles from 2s per attempt up to 5m, plus 0-250ms jitter.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := backoffCap
	if attempt < 16 {
		delay = time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))
	}

	if delay > backoffCap {
		delay = backoffCap
	}

	// small jitter to avoid thundering herd
	return delay + time.Duration(rand.IntN(250))*time.Millisecond
}
