// Package task runs periodic background jobs next to a motion routine.
package task

import (
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
)

// Scheduler runs named jobs at a fixed period on their own goroutines. A job
// never overlaps with itself: a run that is still busy when the next one is
// due causes that run to be skipped.
type Scheduler struct {
	cron   *gocron.Scheduler
	logger golog.Logger

	mu      sync.Mutex
	jobs    map[string]*gocron.Job
	started bool
}

func NewScheduler(logger golog.Logger) *Scheduler {
	if logger == nil {
		logger = golog.Global()
	}
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:   cron,
		logger: logger,
		jobs:   make(map[string]*gocron.Job),
	}
}

// Every registers fn to run each period, starting immediately once the
// scheduler is started.
func (s *Scheduler) Every(name string, period time.Duration, fn func()) error {
	if period <= 0 {
		return errors.Errorf("task %q: period must be positive, got %v", name, period)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return errors.Errorf("task %q already scheduled", name)
	}
	job, err := s.cron.Every(period).Tag(name).Do(fn)
	if err != nil {
		return errors.Wrapf(err, "schedule task %q", name)
	}
	s.jobs[name] = job
	s.logger.Debugw("task scheduled", "task", name, "period", period)
	return nil
}

// Remove unschedules a job by name.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; !ok {
		return errors.Errorf("task %q not scheduled", name)
	}
	if err := s.cron.RemoveByTag(name); err != nil {
		return errors.Wrapf(err, "remove task %q", name)
	}
	delete(s.jobs, name)
	return nil
}

// Runs reports how many times the named job has started.
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return job.RunCount()
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.StartAsync()
	s.started = true
	s.logger.Debugw("scheduler started", "jobs", len(s.jobs))
}

// Stop halts every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Stop()
	s.started = false
	s.logger.Debug("scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
