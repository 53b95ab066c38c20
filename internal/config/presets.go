package config

import (
	"sort"
	"time"

	"github.com/san-kum/drivectl/internal/pid"
)

// Presets are complete configurations for common setups.
var Presets = map[string]*Config{
	"simple":     simple(),
	"calibrated": calibrated(),
	"fine":       fine(),
	"toy":        toy(),
}

// simple measures in raw encoder degrees.
func simple() *Config {
	return DefaultConfig()
}

func calibrated() *Config {
	cfg := DefaultConfig()
	cfg.Geometry.WheelDiameter = 2.75
	cfg.Plant.WheelDiameter = 2.75
	return cfg
}

func fine() *Config {
	cfg := DefaultConfig()
	for _, s := range []*time.Duration{&cfg.Move.Tick, &cfg.Turn.Tick} {
		*s = 10 * time.Millisecond
	}
	cfg.Move.StrikeLimit, cfg.Turn.StrikeLimit = 200, 200
	cfg.Move.Timeout, cfg.Turn.Timeout = 4*time.Second, 4*time.Second
	cfg.Plant.Response = 0.5 / 0.010
	cfg.Plant.TurnResponse = 0.5 / 0.010
	return cfg
}

// toy is an unsaturated plant that advances half the output per tick.
func toy() *Config {
	cfg := DefaultConfig()
	cfg.Gains.Lateral = pid.Gains{Kp: 0.38, Ki: 0.001, Kd: 0.45}
	cfg.Move.MaxOutput, cfg.Turn.MaxOutput = 0, 0
	cfg.Plant.MaxVolts = 0
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
