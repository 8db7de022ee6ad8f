// Package timing tracks how long build stages take.
package timing

import "time"

// Stage is one timed span of the build.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Stopwatch records elapsed time per named stage and overall.
type Stopwatch struct {
	start  time.Time
	last   time.Time
	stages []Stage
}

// Start returns a running Stopwatch.
func Start() *Stopwatch {
	now := time.Now()
	return &Stopwatch{start: now, last: now}
}

// Mark records the time since the previous mark under name.
func (s *Stopwatch) Mark(name string) Stage {
	now := time.Now()
	stage := Stage{Name: name, Duration: now.Sub(s.last).Round(time.Millisecond)}
	s.last = now
	s.stages = append(s.stages, stage)
	return stage
}

// Stages returns the recorded stages in order.
func (s *Stopwatch) Stages() []Stage {
	return s.stages
}

// Total returns the time since Start.
func (s *Stopwatch) Total() time.Duration {
	return time.Since(s.start).Round(time.Millisecond)
}
