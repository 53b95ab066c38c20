package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const motorsPerSide = 3

type PlantConfig struct {
	// Response is the linear travel of one side, in length units per volt
	// per second.
	Response float64 `yaml:"response"`
	// TurnResponse is the heading change in degrees per volt per second of
	// half the side difference.
	TurnResponse float64 `yaml:"turn_response"`
	// WheelDiameter converts travel into encoder degrees. Zero means the
	// encoders report travel directly.
	WheelDiameter float64 `yaml:"wheel_diameter"`
	// MaxVolts saturates each side. Zero disables saturation.
	MaxVolts float64 `yaml:"max_volts"`
	// Noise is the standard deviation added to every sensor read.
	Noise float64 `yaml:"noise"`
	Seed  int64   `yaml:"seed"`
}

func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		Response:     0.5 / 0.070,
		TurnResponse: 0.5 / 0.070,
		MaxVolts:     12,
	}
}

// World is a simulated drivetrain with encoders, an inertial sensor and a
// clock. It is safe for concurrent use.
type World struct {
	mu       sync.Mutex
	cfg      PlantConfig
	realtime bool
	rng      *rand.Rand

	start time.Time
	now   time.Time

	cmd       [2]float64
	cap       float64
	travel    [2]float64
	tare      [2]float64
	heading   float64
	stalled   bool
	commands  int
	lastDrive [2]float64
}

func NewWorld(cfg PlantConfig) *World {
	start := time.Unix(0, 0).UTC()
	return &World{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		start: start,
		now:   start,
		cap:   100,
	}
}

// NewRealtimeWorld returns a world whose Sleep blocks for real.
func NewRealtimeWorld(cfg PlantConfig) *World {
	w := NewWorld(cfg)
	w.realtime = true
	w.start = time.Now()
	w.now = w.start
	return w
}

func (w *World) Config() PlantConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// SetStalled freezes the plant: commands are accepted but nothing moves.
func (w *World) SetStalled(stalled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stalled = stalled
}

func (w *World) Now() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now
}

// Elapsed is the simulated time since the world was created.
func (w *World) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now.Sub(w.start)
}

// Sleep integrates the plant over d with the current command.
func (w *World) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if w.realtime {
		time.Sleep(d)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.integrate(d.Seconds())
	w.now = w.now.Add(d)
}

func (w *World) integrate(dt float64) {
	if w.stalled {
		return
	}
	l, r := w.saturate(w.cmd[0]), w.saturate(w.cmd[1])
	w.travel[0] += l * w.cfg.Response * dt
	w.travel[1] += r * w.cfg.Response * dt
	w.heading += (l - r) / 2 * w.cfg.TurnResponse * dt
}

func (w *World) saturate(v float64) float64 {
	if w.cfg.MaxVolts <= 0 {
		return v
	}
	limit := w.cfg.MaxVolts * w.cap / 100
	return math.Max(-limit, math.Min(limit, v))
}

func (w *World) Drive(left, right float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cmd = [2]float64{left, right}
	w.lastDrive = w.cmd
	w.commands++
}

func (w *World) SetVelocityCap(pct float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cap = math.Max(0, math.Min(100, pct))
}

func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cmd = [2]float64{}
	w.lastDrive = w.cmd
	w.commands++
}

// Command returns the last per-side command and the number of commands
// received so far.
func (w *World) Command() (left, right float64, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastDrive[0], w.lastDrive[1], w.commands
}

func (w *World) Positions() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	pos := make([]float64, 0, 2*motorsPerSide)
	for side := 0; side < 2; side++ {
		deg := w.toDegrees(w.travel[side] - w.tare[side])
		for i := 0; i < motorsPerSide; i++ {
			pos = append(pos, deg+w.noise())
		}
	}
	return pos
}

func (w *World) toDegrees(travel float64) float64 {
	if w.cfg.WheelDiameter <= 0 {
		return travel
	}
	return travel * 360 / (math.Pi * w.cfg.WheelDiameter)
}

func (w *World) Tare() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tare = w.travel
}

// Travel is the true distance covered by each side, free of noise.
func (w *World) Travel() (left, right float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.travel[0], w.travel[1]
}

func (w *World) Rotation() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.heading + w.noise()
}

func (w *World) SetRotation(deg float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.heading = deg
}

func (w *World) noise() float64 {
	if w.cfg.Noise == 0 {
		return 0
	}
	return w.rng.NormFloat64() * w.cfg.Noise
}
