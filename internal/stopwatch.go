package internal

import "time"

// Stopwatch measures a single span in milliseconds.
type Stopwatch struct {
	now   func() time.Time
	start time.Time
}

func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

func (s *Stopwatch) Start() {
	s.start = s.now()
}

// Stop returns the milliseconds elapsed since the last Start.
func (s *Stopwatch) Stop() float64 {
	return float64(s.now().Sub(s.start)) / float64(time.Millisecond)
}
