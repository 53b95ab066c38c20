package route

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/san-kum/drivectl/internal/config"
	"github.com/san-kum/drivectl/internal/hal"
	"github.com/san-kum/drivectl/internal/motion"
	"github.com/san-kum/drivectl/internal/safety"
	"github.com/san-kum/drivectl/internal/sim"
	"github.com/san-kum/drivectl/internal/task"
)

const skills = `
name: skills
description: grab a ring, turn, score
steps:
  - kind: set_heading
    value: 0
  - kind: conveyor
    direction: forward
  - kind: move
    value: 24
    label: approach
  - kind: turn
    value: 45
  - kind: gate
    on: true
  - kind: wait
    duration: 500ms
  - kind: conveyor
    direction: reverse
  - kind: timed_move
    value: -75
    velocity: 100
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(skills))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if r.Name != "skills" || len(r.Steps) != 8 {
		t.Fatalf("unexpected route %+v", r)
	}
	if r.Steps[5].Duration != 500*time.Millisecond {
		t.Errorf("expected 500ms wait, got %v", r.Steps[5].Duration)
	}
	if r.Steps[2].String() != "approach" || r.Steps[3].String() != "turn" {
		t.Errorf("unexpected step names %s, %s", r.Steps[2], r.Steps[3])
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown step", "steps:\n  - kind: strafe\n", ErrUnknownStep},
		{"empty", "name: nothing\n", nil},
		{"bad direction", "steps:\n  - kind: conveyor\n    direction: sideways\n", nil},
		{"zero wait", "steps:\n  - kind: wait\n", nil},
		{"velocity", "steps:\n  - kind: move\n    value: 3\n    velocity: 150\n", nil},
		{"bad yaml", "steps: [", nil},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.yaml")
	if err := os.WriteFile(path, []byte(skills), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("load failed: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func newEnv(t *testing.T) (Env, *sim.World, *sim.Gate) {
	cfg := config.DefaultConfig()
	world := sim.NewWorld(cfg.Plant)
	hw := motion.Hardware{Drivetrain: world, Encoders: world, Inertial: world, Clock: world}
	gate := &sim.Gate{}
	env := Env{
		Drive:    motion.New(cfg.Motion(), hw, golog.NewTestLogger(t)),
		Bus:      hal.NewBus(hal.Stop),
		Gate:     gate,
		Inertial: world,
		Clock:    world,
	}
	return env, world, gate
}

func TestRun(t *testing.T) {
	r, err := Parse([]byte(skills))
	if err != nil {
		t.Fatal(err)
	}
	env, world, gate := newEnv(t)
	world.SetRotation(30)

	results, err := NewRunner(env, golog.NewTestLogger(t)).Run(context.Background(), r)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}

	move := results[2].Motion
	if move == nil || move.Kind != motion.Move || move.Outcome != motion.Converged {
		t.Errorf("expected a converged move, got %+v", move)
	}
	turn := results[3].Motion
	if turn == nil || turn.Outcome != motion.Converged {
		t.Errorf("expected a converged turn, got %+v", turn)
	}
	if turn != nil && (turn.Final < 43 || turn.Final > 47) {
		t.Errorf("expected heading near 45 after set_heading 0, got %v", turn.Final)
	}
	if results[5].Motion != nil || results[5].Elapsed != 500*time.Millisecond {
		t.Errorf("unexpected wait result %+v", results[5])
	}
	if last := results[7].Motion; last == nil || last.Outcome != motion.Completed {
		t.Errorf("expected a completed timed move, got %+v", last)
	}

	if !gate.On() {
		t.Error("expected gate on")
	}
	if env.Bus.Load() != hal.Reverse {
		t.Errorf("expected conveyor reverse, got %s", env.Bus.Load())
	}
}

func TestRunMissingOutputs(t *testing.T) {
	env, _, _ := newEnv(t)
	env.Gate = nil
	r := &Route{Steps: []Step{{Kind: StepWait, Duration: time.Second}, {Kind: StepGate, On: true}}}

	results, err := NewRunner(env, nil).Run(context.Background(), r)
	if err == nil {
		t.Fatal("expected error without a gate")
	}
	if len(results) != 1 {
		t.Errorf("expected the wait to complete first, got %d results", len(results))
	}
}

func TestRunUnknownStep(t *testing.T) {
	env, _, _ := newEnv(t)
	_, err := NewRunner(env, nil).Run(context.Background(), &Route{Steps: []Step{{Kind: "spin"}}})
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	env, _, _ := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewRunner(env, nil).Run(ctx, &Route{Steps: []Step{{Kind: StepMove, Value: 10}}})
	if err != context.Canceled || len(results) != 0 {
		t.Errorf("expected cancellation before any step, got %v, %d results", err, len(results))
	}
}

func TestRunAlongsideSafetyTask(t *testing.T) {
	cfg := config.DefaultConfig()
	world := sim.NewRealtimeWorld(cfg.Plant)
	hw := motion.Hardware{Drivetrain: world, Encoders: world, Inertial: world, Clock: world}
	drive := motion.New(cfg.Motion(), hw, golog.NewTestLogger(t))
	bus := hal.NewBus(hal.Stop)

	conveyor := sim.NewConveyor()
	color := sim.NewColorSensor()
	color.Set(350, 0.5)
	guard := safety.New(cfg.Safety, safety.Devices{Conveyor: conveyor, Color: color, Gate: &sim.Gate{}}, bus, golog.NewTestLogger(t))

	// the ring leaves the sensor once the eject has started
	var during []hal.Directive
	drive.AddObserver(motion.ObserverFunc(func(kind motion.Kind, s motion.Sample) {
		d := bus.Load()
		during = append(during, d)
		if d == hal.Reverse {
			color.Set(0, 0)
		}
	}))

	sched := task.NewScheduler(golog.NewTestLogger(t))
	if err := sched.Every("conveyor", cfg.Safety.Period, guard.Tick); err != nil {
		t.Fatal(err)
	}
	sched.Start()
	defer sched.Stop()

	r := &Route{Name: "shared", Steps: []Step{
		{Kind: StepConveyor, Direction: "forward"},
		{Kind: StepMove, Value: 24},
	}}
	env := Env{Drive: drive, Bus: bus, Inertial: world, Clock: world}
	results, err := NewRunner(env, golog.NewTestLogger(t)).Run(context.Background(), r)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m := results[1].Motion; m == nil || m.Outcome != motion.Converged {
		t.Errorf("expected the move to converge with the task running, got %+v", m)
	}

	reversed := 0
	for _, d := range during {
		if d == hal.Reverse {
			reversed++
		}
	}
	if reversed == 0 {
		t.Errorf("expected the eject to reverse the conveyor during the move, saw %v", during)
	}
	if during[0] != hal.Forward {
		t.Errorf("expected the route's forward on the first move tick, got %s", during[0])
	}

	deadline := time.Now().Add(2 * time.Second)
	for bus.Load() != hal.Forward && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if bus.Load() != hal.Forward {
		t.Errorf("expected the route's forward back after the eject, got %s", bus.Load())
	}
	if guard.Stats().Ejects != 1 {
		t.Errorf("expected one eject, got %d", guard.Stats().Ejects)
	}
}
