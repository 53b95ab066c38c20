package sim

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/drivectl/internal/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ hal.Drivetrain  = (*World)(nil)
	_ hal.Encoders    = (*World)(nil)
	_ hal.Inertial    = (*World)(nil)
	_ hal.Clock       = (*World)(nil)
	_ hal.Motor       = (*Conveyor)(nil)
	_ hal.ColorSensor = (*ColorSensor)(nil)
	_ hal.DigitalOut  = (*Gate)(nil)
)

func TestWorldVirtualClock(t *testing.T) {
	w := NewWorld(DefaultPlantConfig())
	t0 := w.Now()

	w.Sleep(70 * time.Millisecond)
	w.Sleep(30 * time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, w.Now().Sub(t0))
	assert.Equal(t, 100*time.Millisecond, w.Elapsed())
}

func TestWorldStraightLine(t *testing.T) {
	w := NewWorld(PlantConfig{Response: 2})
	w.Drive(3, 3)
	w.Sleep(500 * time.Millisecond)

	l, r := w.Travel()
	assert.InDelta(t, 3.0, l, 1e-9)
	assert.InDelta(t, 3.0, r, 1e-9)
	assert.InDelta(t, 0.0, w.Rotation(), 1e-9)

	pos := w.Positions()
	require.Len(t, pos, 6)
	for _, p := range pos {
		assert.InDelta(t, 3.0, p, 1e-9)
	}
}

func TestWorldEncoderDegrees(t *testing.T) {
	w := NewWorld(PlantConfig{Response: 1, WheelDiameter: 2.75})
	w.Drive(1, 1)
	w.Sleep(time.Second)

	want := 360 / (math.Pi * 2.75)
	assert.InDelta(t, want, w.Positions()[0], 1e-9)

	w.Tare()
	assert.InDelta(t, 0.0, w.Positions()[5], 1e-9)
}

func TestWorldTurn(t *testing.T) {
	w := NewWorld(PlantConfig{TurnResponse: 10})
	w.Drive(2, -2)
	w.Sleep(time.Second)
	assert.InDelta(t, 20.0, w.Rotation(), 1e-9)

	w.SetRotation(0)
	w.Drive(-2, 2)
	w.Sleep(time.Second)
	assert.InDelta(t, -20.0, w.Rotation(), 1e-9)
}

func TestWorldSaturation(t *testing.T) {
	w := NewWorld(PlantConfig{Response: 1, MaxVolts: 12})
	w.SetVelocityCap(50)
	w.Drive(100, 100)
	w.Sleep(time.Second)

	l, _ := w.Travel()
	assert.InDelta(t, 6.0, l, 1e-9)
}

func TestWorldStalled(t *testing.T) {
	w := NewWorld(PlantConfig{Response: 1, TurnResponse: 1})
	w.SetStalled(true)
	w.Drive(12, -12)
	w.Sleep(time.Second)

	l, r := w.Travel()
	assert.Zero(t, l)
	assert.Zero(t, r)
	assert.Zero(t, w.Rotation())

	left, right, n := w.Command()
	assert.Equal(t, 12.0, left)
	assert.Equal(t, -12.0, right)
	assert.Equal(t, 1, n)
}

func TestConveyorJam(t *testing.T) {
	c := NewConveyor()
	c.SetVelocity(80)
	assert.Equal(t, 80.0, c.Velocity())

	c.Jam(2)
	assert.Zero(t, c.Velocity())
	assert.Zero(t, c.Velocity())
	assert.Equal(t, 80.0, c.Velocity())

	c.Jam(-1)
	for i := 0; i < 100; i++ {
		assert.Zero(t, c.Velocity())
	}
	c.Clear()
	assert.Equal(t, 80.0, c.Velocity())
	assert.Equal(t, []float64{80}, c.History())
}

func TestGateToggles(t *testing.T) {
	var g Gate
	g.Set(true)
	g.Set(true)
	g.Set(false)
	assert.False(t, g.On())
	assert.Equal(t, 2, g.Toggles())
}
