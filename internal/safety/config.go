package safety

import "time"

type Alliance string

const (
	Red  Alliance = "red"
	Blue Alliance = "blue"
)

// Opponent returns the other alliance.
func (a Alliance) Opponent() Alliance {
	if a == Blue {
		return Red
	}
	return Blue
}

// Matches reports whether hue lies in the alliance's color band.
func (a Alliance) Matches(hue float64) bool {
	if a == Blue {
		return hue > 210 && hue < 230
	}
	return hue > 345 || hue < 15
}

type StallConfig struct {
	// VelocityFloor is the observed speed below which a sample counts as
	// stalled.
	VelocityFloor float64 `yaml:"velocity_floor"`
	// StallSamples is how many consecutive stalled samples are tolerated.
	StallSamples  int `yaml:"stall_samples"`
	PulseTicks    int `yaml:"pulse_ticks"`
	CooldownTicks int `yaml:"cooldown_ticks"`
}

type Config struct {
	Period          time.Duration `yaml:"period"`
	Alliance        Alliance      `yaml:"alliance"`
	Sorting         bool          `yaml:"sorting"`
	SaturationFloor float64       `yaml:"saturation_floor"`
	EjectDelay      int           `yaml:"eject_delay"`
	EjectWindow     int           `yaml:"eject_window"`
	Rearm           int           `yaml:"rearm"`
	BoostTicks      int           `yaml:"boost_ticks"`
	BaseSpeed       float64       `yaml:"base_speed"`
	BoostSpeed      float64       `yaml:"boost_speed"`
	LED             float64       `yaml:"led"`
	Stall           StallConfig   `yaml:"stall"`
}

func DefaultConfig() Config {
	return Config{
		Period:          10 * time.Millisecond,
		Alliance:        Blue,
		Sorting:         true,
		SaturationFloor: 0.2,
		EjectDelay:      14,
		EjectWindow:     39,
		Rearm:           41,
		BoostTicks:      30,
		BaseSpeed:       100,
		BoostSpeed:      127,
		LED:             100,
		Stall: StallConfig{
			VelocityFloor: 5,
			StallSamples:  12,
			PulseTicks:    15,
			CooldownTicks: 50,
		},
	}
}
