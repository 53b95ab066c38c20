package safety

import "sync/atomic"

type sortPhase int

const (
	sortIdle sortPhase = iota
	sortDelay
	sortEject
	sortRearm
)

// Sorter decides, one sample at a time, when a ring of the opposing color
// has to be thrown off the conveyor.
type Sorter struct {
	cfg       Config
	enabled   atomic.Bool
	phase     sortPhase
	remaining int
	boost     int
	ejects    int
}

func NewSorter(cfg Config) *Sorter {
	s := &Sorter{cfg: cfg}
	s.enabled.Store(cfg.Sorting)
	return s
}

// SetEnabled turns color detection on or off. A window already open runs to
// completion. Safe to call from any goroutine.
func (s *Sorter) SetEnabled(on bool) {
	s.enabled.Store(on)
}

func (s *Sorter) Enabled() bool {
	return s.enabled.Load()
}

// Observe advances the sorter by one sample. It reports whether the eject
// window is open and the conveyor speed magnitude for this sample.
func (s *Sorter) Observe(hue, saturation float64) (ejecting bool, speed float64) {
	switch s.phase {
	case sortDelay:
		s.remaining--
		if s.remaining <= 0 {
			s.openWindow()
		}
	case sortEject:
		s.remaining--
		if s.remaining <= 0 {
			s.phase, s.remaining = sortRearm, s.cfg.Rearm
		}
	case sortRearm:
		s.remaining--
		if s.remaining <= 0 {
			s.phase = sortIdle
		}
	}
	if s.boost > 0 {
		s.boost--
	}

	if s.Enabled() && s.phase == sortIdle && saturation > s.cfg.SaturationFloor {
		switch {
		case s.cfg.Alliance.Opponent().Matches(hue):
			if s.cfg.EjectDelay > 0 {
				s.phase, s.remaining = sortDelay, s.cfg.EjectDelay
			} else {
				s.openWindow()
			}
		case s.cfg.Alliance.Matches(hue):
			s.boost = s.cfg.BoostTicks
		}
	}

	speed = s.cfg.BaseSpeed
	if s.boost > 0 {
		speed = s.cfg.BoostSpeed
	}
	return s.phase == sortEject, speed
}

func (s *Sorter) openWindow() {
	s.phase, s.remaining = sortEject, s.cfg.EjectWindow
	s.ejects++
}

// Ejects counts the windows opened so far.
func (s *Sorter) Ejects() int {
	return s.ejects
}
