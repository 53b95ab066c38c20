package motion

import (
	"math"
	"sync"

	"github.com/edaniels/golog"

	"github.com/san-kum/drivectl/internal/hal"
	"github.com/san-kum/drivectl/internal/pid"
)

// Geometry converts encoder degrees into travel.
type Geometry struct {
	// WheelDiameter in length units. Zero means raw encoder degrees.
	WheelDiameter float64 `yaml:"wheel_diameter" json:"wheel_diameter"`
}

// Scale returns travel per encoder degree.
func (g Geometry) Scale() float64 {
	if g.WheelDiameter <= 0 {
		return 1
	}
	return math.Pi * g.WheelDiameter / 360
}

type Hardware struct {
	Drivetrain hal.Drivetrain
	Encoders   hal.Encoders
	Inertial   hal.Inertial
	Clock      hal.Clock
}

type Config struct {
	Lateral  pid.Gains
	Left     pid.Gains
	Right    pid.Gains
	Move     Settings
	Turn     Settings
	Geometry Geometry
	OpenLoop OpenLoop
}

// Drive owns the controllers of one drivetrain. A Drive must only be used
// from one goroutine at a time; primitives block until they finish.
type Drive struct {
	hw     Hardware
	cfg    Config
	bank   *pid.Bank
	logger golog.Logger

	mu        sync.Mutex
	observers []Observer
}

func New(cfg Config, hw Hardware, logger golog.Logger) *Drive {
	if hw.Clock == nil {
		hw.Clock = hal.SystemClock()
	}
	if logger == nil {
		logger = golog.Global()
	}
	return &Drive{
		hw:     hw,
		cfg:    cfg,
		bank:   pid.NewBank(cfg.Lateral, cfg.Left, cfg.Right),
		logger: logger,
	}
}

func (d *Drive) AddObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

func (d *Drive) notify(kind Kind, s Sample) {
	d.mu.Lock()
	obs := d.observers
	d.mu.Unlock()
	for _, o := range obs {
		o.OnTick(kind, s)
	}
}

// Controllers exposes the controller bank, mostly for inspection in tests.
func (d *Drive) Controllers() *pid.Bank {
	return d.bank
}

func (d *Drive) Config() Config {
	return d.cfg
}

// Move drives both sides equally until the mean encoder travel since the
// call started reaches req.Setpoint.
func (d *Drive) Move(req Request) Result {
	scale := d.cfg.Geometry.Scale()
	start := d.hw.Encoders.Positions()

	measure := func() float64 {
		pos := d.hw.Encoders.Positions()
		if len(pos) == 0 {
			return 0
		}
		sum := 0.0
		for i, p := range pos {
			if i < len(start) {
				p -= start[i]
			}
			sum += p
		}
		return sum / float64(len(pos)) * scale
	}

	lateral := d.bank.Axis(pid.Lateral)
	control := func(setpoint, m float64) (float64, float64, float64) {
		out := lateral.Calculate(setpoint, m)
		return out, out, out
	}

	return d.run(Move, req, d.cfg.Move, measure, control, pid.Lateral)
}

// Turn rotates in place until the inertial rotation reaches req.Setpoint.
// The setpoint is absolute: the inertial sensor is never zeroed here.
func (d *Drive) Turn(req Request) Result {
	measure := d.hw.Inertial.Rotation

	left, right := d.bank.Axis(pid.Left), d.bank.Axis(pid.Right)
	control := func(setpoint, m float64) (float64, float64, float64) {
		lo := left.Calculate(setpoint, m)
		ro := right.Calculate(setpoint, m)
		out := lo
		if math.Abs(ro) > math.Abs(lo) {
			out = ro
		}
		return out, lo, -ro
	}

	return d.run(Turn, req, d.cfg.Turn, measure, control, pid.Left, pid.Right)
}
