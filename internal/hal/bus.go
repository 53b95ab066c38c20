package hal

import "sync/atomic"

// Directive is a coarse directional intent for a shared actuator.
type Directive int32

const (
	Reverse Directive = -1
	Stop    Directive = 0
	Forward Directive = 1
)

func (d Directive) String() string {
	switch d {
	case Reverse:
		return "reverse"
	case Forward:
		return "forward"
	default:
		return "stop"
	}
}

// Sign returns -1, 0 or 1.
func (d Directive) Sign() float64 {
	return float64(d)
}

// ParseDirective accepts "forward", "reverse" and "stop" (and 1/-1/0).
func ParseDirective(s string) (Directive, bool) {
	switch s {
	case "forward", "fwd", "1":
		return Forward, true
	case "reverse", "rev", "-1":
		return Reverse, true
	case "stop", "0":
		return Stop, true
	}
	return Stop, false
}

// Bus is a single directional cell shared by every writer of an actuator.
// The most recent write wins. Writers re-assert their intent every tick, so
// no ordering between them is needed.
type Bus struct {
	v atomic.Int32
}

func NewBus(d Directive) *Bus {
	b := &Bus{}
	b.v.Store(int32(d))
	return b
}

func (b *Bus) Load() Directive {
	return Directive(b.v.Load())
}

func (b *Bus) Store(d Directive) {
	b.v.Store(int32(d))
}

// CompareAndSwap stores next only if the cell still holds old.
func (b *Bus) CompareAndSwap(old, next Directive) bool {
	return b.v.CompareAndSwap(int32(old), int32(next))
}
