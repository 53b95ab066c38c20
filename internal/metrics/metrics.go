// Package metrics scores a motion run from its per-tick samples.
package metrics

import (
	"sync"

	"github.com/san-kum/drivectl/internal/motion"
)

type Metric interface {
	Name() string
	Observe(s motion.Sample)
	Value() float64
	Reset()
}

// Default returns the standard metrics for a run with the given settings.
func Default(s motion.Settings) []Metric {
	band := s.Tolerance
	if band <= 0 {
		band = s.Threshold
	}
	return []Metric{
		NewSettleTime(band),
		NewOvershoot(),
		NewIAE(),
		NewControlEffort(),
		NewFinalError(),
	}
}

// Evaluate feeds every sample of res through a fresh default set.
func Evaluate(res motion.Result) map[string]float64 {
	set := NewSet(Default(res.Settings)...)
	for _, s := range res.Samples {
		set.OnTick(res.Kind, s)
	}
	return set.Values()
}

// Set collects metrics live. It satisfies motion.Observer.
type Set struct {
	mu      sync.Mutex
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

func (s *Set) OnTick(_ motion.Kind, smp motion.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.Observe(smp)
	}
}

func (s *Set) Values() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.Reset()
	}
}
