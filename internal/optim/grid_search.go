// Package optim searches for fixed controller gains offline, against the
// simulated drivetrain.
package optim

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/drivectl/internal/pid"
)

// Objective scores one set of gains. Lower is better.
type Objective func(ctx context.Context, g pid.Gains) (Candidate, error)

type Candidate struct {
	Gains     pid.Gains          `json:"gains"`
	Score     float64            `json:"score"`
	Converged bool               `json:"converged"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

type GridSearch struct {
	kp, ki, kd []float64
	workers    int
}

func NewGridSearch(kp, ki, kd []float64) *GridSearch {
	return &GridSearch{kp: kp, ki: ki, kd: kd, workers: runtime.NumCPU()}
}

// Span returns n evenly spaced values from lo to hi inclusive.
func Span(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

func (g *GridSearch) Size() int {
	return len(g.kp) * len(g.ki) * len(g.kd)
}

// Search evaluates every combination and returns them best first.
func (g *GridSearch) Search(ctx context.Context, objective Objective) ([]Candidate, error) {
	if g.Size() == 0 {
		return nil, errors.New("empty gain grid")
	}

	jobs := make(chan pid.Gains)
	results := make([]Candidate, 0, g.Size())
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)

	for i := 0; i < g.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gains := range jobs {
				c, err := objective(ctx, gains)
				mu.Lock()
				if err != nil {
					errs = multierr.Append(errs, errors.Wrapf(err, "gains %s", gains))
				} else {
					results = append(results, c)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, kp := range g.kp {
		for _, ki := range g.ki {
			for _, kd := range g.kd {
				select {
				case <-ctx.Done():
					break feed
				case jobs <- pid.Gains{Kp: kp, Ki: ki, Kd: kd}:
				}
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs != nil {
		return nil, errs
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Converged != results[j].Converged {
			return results[i].Converged
		}
		return results[i].Score < results[j].Score
	})
	return results, nil
}
