package pid

// Axis indexes the controllers of a drivetrain.
type Axis int

const (
	Lateral Axis = iota
	Left
	Right
	numAxes
)

var axisNames = [numAxes]string{"lateral", "left", "right"}

func (a Axis) String() string {
	if a < 0 || a >= numAxes {
		return "unknown"
	}
	return axisNames[a]
}

// Axes lists every axis in index order.
func Axes() []Axis {
	return []Axis{Lateral, Left, Right}
}

// Bank holds one controller per axis.
type Bank struct {
	ctrl [numAxes]*Controller
}

func NewBank(lateral, left, right Gains) *Bank {
	return &Bank{ctrl: [numAxes]*Controller{New(lateral), New(left), New(right)}}
}

func (b *Bank) Axis(a Axis) *Controller {
	return b.ctrl[a]
}

// Reset clears the given axes, or every axis when none are given.
func (b *Bank) Reset(axes ...Axis) {
	if len(axes) == 0 {
		axes = Axes()
	}
	for _, a := range axes {
		b.ctrl[a].Reset()
	}
}
