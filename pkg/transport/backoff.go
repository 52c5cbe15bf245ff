package transport

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultBaseDelay scales the reconnect delay.
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay caps the reconnect delay.
	DefaultMaxDelay = 30 * time.Second
	// backoffFactor is the growth rate of the reconnect delay per retry.
	backoffFactor = 1.5
)

// Backoff returns the delay before reconnect attempt number retries:
//
//	min(maxDelay, (1 + rnd()) * 1.5^retries * base)
//
// rnd must return values in [0, 1); nil uses math/rand.
func Backoff(retries int, base, maxDelay time.Duration, rnd func() float64) time.Duration {
	if rnd == nil {
		rnd = rand.Float64
	}
	if retries < 0 {
		retries = 0
	}

	d := (1 + rnd()) * math.Pow(backoffFactor, float64(retries)) * float64(base)
	if math.IsNaN(d) || d >= float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}
