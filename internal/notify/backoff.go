package notify

import "time"

// Backoff produces clamped exponential delays for reconnect attempts.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Next returns the delay before a given attempt (1-based).
func (b Backoff) Next(attempt int) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = time.Second
	}
	d := initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}
