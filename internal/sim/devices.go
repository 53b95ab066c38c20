package sim

import "sync"

// Conveyor is a velocity-commanded motor whose observed velocity follows the
// command unless it is jammed.
type Conveyor struct {
	mu        sync.Mutex
	commanded float64
	jammed    int
	history   []float64
}

func NewConveyor() *Conveyor {
	return &Conveyor{}
}

func (c *Conveyor) SetVelocity(pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commanded = pct
	c.history = append(c.history, pct)
}

// Velocity reports the observed velocity. While jammed it reads zero and
// each read consumes one jammed sample.
func (c *Conveyor) Velocity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jammed > 0 {
		c.jammed--
		return 0
	}
	return c.commanded
}

// Jam makes the next n velocity reads return zero. A negative n jams until
// Clear is called.
func (c *Conveyor) Jam(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = int(^uint(0) >> 1)
	}
	c.jammed = n
}

func (c *Conveyor) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jammed = 0
}

func (c *Conveyor) Commanded() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commanded
}

// History returns every velocity command in order.
func (c *Conveyor) History() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.history))
	copy(out, c.history)
	return out
}

type ColorSensor struct {
	mu         sync.Mutex
	hue        float64
	saturation float64
	led        float64
}

func NewColorSensor() *ColorSensor {
	return &ColorSensor{}
}

func (s *ColorSensor) Set(hue, saturation float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hue = hue
	s.saturation = saturation
}

func (s *ColorSensor) Hue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hue
}

func (s *ColorSensor) Saturation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saturation
}

func (s *ColorSensor) SetLED(pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.led = pct
}

func (s *ColorSensor) LED() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.led
}

// Gate records the state of a digital output.
type Gate struct {
	mu      sync.Mutex
	on      bool
	toggles int
}

func (g *Gate) Set(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if on != g.on {
		g.toggles++
	}
	g.on = on
}

func (g *Gate) On() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

func (g *Gate) Toggles() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.toggles
}
