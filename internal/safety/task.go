package safety

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"

	"github.com/san-kum/drivectl/internal/hal"
)

type Devices struct {
	Conveyor hal.Motor
	Color    hal.ColorSensor
	// Gate is optional.
	Gate hal.DigitalOut
}

// Stats summarises what the task has done since it was created.
type Stats struct {
	Ticks  int
	Ejects int
	Pulses int
}

// Task is the background conveyor supervisor. Tick must not be called
// concurrently with itself; everything else is safe from any goroutine.
type Task struct {
	cfg    Config
	dev    Devices
	bus    *hal.Bus
	logger golog.Logger

	sorter *Sorter
	stall  *StallDetector

	holding   bool
	displaced hal.Directive
	forced    hal.Directive
	commanded float64
	ejecting  bool
	reversing bool

	mu    sync.Mutex
	stats Stats
}

func New(cfg Config, dev Devices, bus *hal.Bus, logger golog.Logger) *Task {
	if logger == nil {
		logger = golog.Global()
	}
	return &Task{
		cfg:    cfg,
		dev:    dev,
		bus:    bus,
		logger: logger,
		sorter: NewSorter(cfg),
		stall:  NewStallDetector(cfg.Stall),
	}
}

func (t *Task) SetSorting(on bool) {
	t.sorter.SetEnabled(on)
	t.logger.Infow("color sorting", "enabled", on)
}

func (t *Task) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Tick runs one supervision cycle.
func (t *Task) Tick() {
	t.dev.Color.SetLED(t.cfg.LED)
	ejecting, speed := t.sorter.Observe(t.dev.Color.Hue(), t.dev.Color.Saturation())
	reversing := t.stall.Observe(t.commanded, t.dev.Conveyor.Velocity())

	if ejecting != t.ejecting {
		t.logger.Infow("eject window", "open", ejecting, "alliance", t.cfg.Alliance)
	}
	if reversing && !t.reversing {
		t.logger.Infow("conveyor stalled, recovery pulse", "commanded", t.commanded, "pulse_ticks", t.cfg.Stall.PulseTicks)
	}
	t.ejecting, t.reversing = ejecting, reversing

	if t.dev.Gate != nil {
		t.dev.Gate.Set(ejecting)
	}
	t.override(ejecting, reversing)

	cmd := t.bus.Load().Sign() * speed
	t.dev.Conveyor.SetVelocity(cmd)
	t.commanded = cmd

	t.mu.Lock()
	t.stats.Ticks++
	t.stats.Ejects = t.sorter.Ejects()
	t.stats.Pulses = t.stall.Pulses()
	t.mu.Unlock()
}

// override forces Reverse during an eject and inverts the commanded
// direction during a stall pulse. A stopped conveyor stays stopped. When the
// override ends the displaced directive is put back, unless someone else
// wrote the bus in the meantime.
func (t *Task) override(ejecting, reversing bool) {
	cur := t.bus.Load()
	if !ejecting && !reversing {
		if t.holding {
			t.bus.CompareAndSwap(t.forced, t.displaced)
			t.holding = false
		}
		return
	}
	if cur == hal.Stop {
		t.holding = false
		return
	}

	base := cur
	if t.holding && cur == t.forced {
		base = t.displaced
	} else {
		t.holding = false
	}
	want := -base
	if ejecting {
		want = hal.Reverse
	}
	if want == cur {
		return
	}
	t.displaced, t.forced, t.holding = base, want, true
	t.bus.Store(want)
}

// Run ticks every Period until ctx is done.
func (t *Task) Run(ctx context.Context) error {
	period := t.cfg.Period
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.dev.Conveyor.SetVelocity(0)
			return ctx.Err()
		case <-ticker.C:
			t.Tick()
		}
	}
}
