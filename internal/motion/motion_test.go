package motion_test

import (
	"math"
	"time"

	"github.com/edaniels/golog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivectl/internal/motion"
	"github.com/san-kum/drivectl/internal/pid"
	"github.com/san-kum/drivectl/internal/sim"
)

const tick = 70 * time.Millisecond

var logger = golog.NewLogger("motion-test")

// perTick builds a plant whose measurement advances by output*k every tick.
func perTick(k float64) sim.PlantConfig {
	return sim.PlantConfig{
		Response:     k / tick.Seconds(),
		TurnResponse: k / tick.Seconds(),
	}
}

func newDrive(plant sim.PlantConfig, cfg motion.Config) (*motion.Drive, *sim.World) {
	w := sim.NewWorld(plant)
	hw := motion.Hardware{Drivetrain: w, Encoders: w, Inertial: w, Clock: w}
	return motion.New(cfg, hw, logger), w
}

func toyConfig() motion.Config {
	s := motion.DefaultMoveSettings()
	s.MaxOutput = 0
	return motion.Config{
		Lateral:  pid.Gains{Kp: 0.38, Ki: 0.001, Kd: 0.45},
		Left:     pid.Gains{Kp: 0.8, Kd: 0.1},
		Right:    pid.Gains{Kp: 0.8, Kd: 0.1},
		Move:     s,
		Turn:     motion.DefaultTurnSettings(),
		OpenLoop: motion.DefaultOpenLoop(),
	}
}

func outputs(res motion.Result) []float64 {
	out := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		out[i] = s.Output
	}
	return out
}

func expectStrictlyDecreasingAfter(out []float64, skip int) {
	for i := skip + 1; i < len(out); i++ {
		ExpectWithOffset(1, math.Abs(out[i])).To(BeNumerically("<", math.Abs(out[i-1])),
			"tick %d: |%f| should be below |%f|", i+1, out[i], out[i-1])
	}
}

var _ = Describe("Move", func() {
	It("converges on the toy plant within the two second ceiling", func() {
		d, _ := newDrive(perTick(0.5), toyConfig())

		res := d.Move(motion.Request{Setpoint: 25})

		Expect(res.Outcome).To(Equal(motion.Converged))
		Expect(res.Elapsed).To(BeNumerically("<", 2*time.Second))
		Expect(res.Ticks).To(Equal(25))
		expectStrictlyDecreasingAfter(outputs(res), 3)
		Expect(res.Final).To(BeNumerically("~", 25, 1))
	})

	It("stays stable but too slow to settle when the plant gain is 0.05 per tick", func() {
		d, _ := newDrive(perTick(0.05), toyConfig())

		res := d.Move(motion.Request{Setpoint: 25})

		Expect(res.Outcome).To(Equal(motion.TimedOut))
		Expect(res.Ticks).To(Equal(29))
		expectStrictlyDecreasingAfter(outputs(res), 3)
		for _, s := range res.Samples {
			Expect(s.Measurement).To(BeNumerically("<", 25))
		}
	})

	It("drives output to zero on a monotone plant", func() {
		cfg := toyConfig()
		cfg.Lateral = pid.Gains{Kp: 0.5}
		d, _ := newDrive(perTick(0.5), cfg)

		res := d.Move(motion.Request{Setpoint: 10})

		Expect(res.Outcome).To(Equal(motion.Converged))
		prev := -1.0
		for _, s := range res.Samples {
			Expect(s.Measurement).To(BeNumerically(">=", prev))
			prev = s.Measurement
		}
		last := res.Samples[len(res.Samples)-1]
		Expect(math.Abs(last.Output)).To(BeNumerically("<", cfg.Move.Threshold))
		expectStrictlyDecreasingAfter(outputs(res), 0)
	})

	It("times out at the ceiling, never before, when the plant is stalled", func() {
		d, w := newDrive(perTick(0.5), toyConfig())
		w.SetStalled(true)

		res := d.Move(motion.Request{Setpoint: 25})

		Expect(res.Outcome).To(Equal(motion.TimedOut))
		Expect(res.Elapsed).To(BeNumerically(">=", 2*time.Second))
		Expect(res.Ticks).To(Equal(29))
		Expect(res.Final).To(BeZero())
	})

	It("honours a per-request timeout", func() {
		d, w := newDrive(perTick(0.5), toyConfig())
		w.SetStalled(true)

		res := d.Move(motion.Request{Setpoint: 25, Timeout: 700 * time.Millisecond})

		Expect(res.Outcome).To(Equal(motion.TimedOut))
		Expect(res.Ticks).To(Equal(10))
		Expect(res.Elapsed).To(Equal(700 * time.Millisecond))
	})

	It("resets its controller, zeroes the drivetrain and waits the settle delay on exit", func() {
		cfg := toyConfig()
		d, w := newDrive(perTick(0.5), cfg)

		res := d.Move(motion.Request{Setpoint: 25})

		st := d.Controllers().Axis(pid.Lateral).State()
		Expect(st.Integral).To(BeZero())
		Expect(st.PrevError).To(BeZero())

		left, right, _ := w.Command()
		Expect(left).To(BeZero())
		Expect(right).To(BeZero())
		Expect(w.Elapsed()).To(Equal(res.Elapsed + cfg.Move.SettleDelay))
	})

	It("measures travel relative to the encoders at the start of the call", func() {
		d, w := newDrive(perTick(0.5), toyConfig())

		first := d.Move(motion.Request{Setpoint: 25})
		second := d.Move(motion.Request{Setpoint: 25})

		Expect(first.Outcome).To(Equal(motion.Converged))
		Expect(second.Outcome).To(Equal(motion.Converged))
		l, r := w.Travel()
		Expect(l).To(BeNumerically("~", 50, 2))
		Expect(r).To(BeNumerically("~", 50, 2))
	})

	It("converts encoder degrees with the wheel geometry", func() {
		plant := perTick(0.5)
		plant.WheelDiameter = 2.75
		cfg := toyConfig()
		cfg.Geometry = motion.Geometry{WheelDiameter: 2.75}
		d, w := newDrive(plant, cfg)

		res := d.Move(motion.Request{Setpoint: 24})

		Expect(res.Outcome).To(Equal(motion.Converged))
		l, _ := w.Travel()
		Expect(l).To(BeNumerically("~", 24, 1))
	})

	It("drives both sides with the same command", func() {
		d, _ := newDrive(perTick(0.5), toyConfig())

		res := d.Move(motion.Request{Setpoint: -12})

		Expect(res.Outcome).To(Equal(motion.Converged))
		for _, s := range res.Samples {
			Expect(s.Left).To(Equal(s.Right))
		}
		Expect(res.Final).To(BeNumerically("~", -12, 1))
	})

	It("does not count low output outside the tolerance band as settled", func() {
		cfg := toyConfig()
		cfg.Lateral = pid.Gains{Kp: 0.001}
		d, _ := newDrive(perTick(0.5), cfg)

		Expect(d.Move(motion.Request{Setpoint: 25}).Outcome).To(Equal(motion.TimedOut))

		cfg.Move.Tolerance = 0
		d, _ = newDrive(perTick(0.5), cfg)
		res := d.Move(motion.Request{Setpoint: 25})
		Expect(res.Outcome).To(Equal(motion.Converged))
		Expect(res.Ticks).To(Equal(cfg.Move.StrikeLimit))
	})

	It("clamps each side to MaxOutput", func() {
		cfg := toyConfig()
		cfg.Move.MaxOutput = 6
		d, _ := newDrive(perTick(0.5), cfg)

		res := d.Move(motion.Request{Setpoint: 25})

		Expect(res.Samples[0].Output).To(BeNumerically(">", 6))
		Expect(res.Samples[0].Left).To(Equal(6.0))
	})

	It("reports every tick to observers", func() {
		d, _ := newDrive(perTick(0.5), toyConfig())
		var seen []motion.Sample
		d.AddObserver(motion.ObserverFunc(func(k motion.Kind, s motion.Sample) {
			Expect(k).To(Equal(motion.Move))
			seen = append(seen, s)
		}))

		res := d.Move(motion.Request{Setpoint: 25})

		Expect(seen).To(Equal(res.Samples))
	})
})

var _ = Describe("Turn", func() {
	It("reaches a positive and a negative heading", func() {
		for _, target := range []float64{90, -90} {
			d, w := newDrive(perTick(0.5), toyConfig())

			res := d.Turn(motion.Request{Setpoint: target, Timeout: 4 * time.Second})

			Expect(res.Outcome).To(Equal(motion.Converged), "target %v", target)
			Expect(w.Rotation()).To(BeNumerically("~", target, 2))
		}
	})

	It("mirrors outputs for +D and -D", func() {
		dPos, _ := newDrive(perTick(0.5), toyConfig())
		dNeg, _ := newDrive(perTick(0.5), toyConfig())

		pos := dPos.Turn(motion.Request{Setpoint: 45})
		neg := dNeg.Turn(motion.Request{Setpoint: -45})

		Expect(neg.Ticks).To(Equal(pos.Ticks))
		Expect(neg.Outcome).To(Equal(pos.Outcome))
		for i := range pos.Samples {
			Expect(neg.Samples[i].Measurement).To(Equal(-pos.Samples[i].Measurement))
			Expect(neg.Samples[i].Left).To(Equal(-pos.Samples[i].Left))
			Expect(neg.Samples[i].Right).To(Equal(-pos.Samples[i].Right))
		}
	})

	It("drives the sides in opposite directions", func() {
		d, _ := newDrive(perTick(0.5), toyConfig())

		res := d.Turn(motion.Request{Setpoint: 30})

		for _, s := range res.Samples {
			Expect(s.Left).To(Equal(-s.Right))
		}
	})

	It("targets an absolute heading without zeroing the sensor", func() {
		d, w := newDrive(perTick(0.5), toyConfig())
		w.SetRotation(60)

		res := d.Turn(motion.Request{Setpoint: 90})

		Expect(res.Outcome).To(Equal(motion.Converged))
		Expect(res.Samples[0].Measurement).To(Equal(60.0))
		Expect(res.Samples[0].Left).To(BeNumerically(">", 0))
	})

	It("resets both side controllers on exit", func() {
		d, w := newDrive(perTick(0.5), toyConfig())
		w.SetStalled(true)

		Expect(d.Turn(motion.Request{Setpoint: 90}).Outcome).To(Equal(motion.TimedOut))
		Expect(d.Controllers().Axis(pid.Left).State().Integral).To(BeZero())
		Expect(d.Controllers().Axis(pid.Right).State().Integral).To(BeZero())
	})
})

var _ = Describe("open loop", func() {
	It("runs a timed move for the calibrated duration", func() {
		cfg := toyConfig()
		d, w := newDrive(sim.PlantConfig{Response: 1, MaxVolts: 12}, cfg)

		res := d.TimedMove(150, 50)

		Expect(res.Outcome).To(Equal(motion.Completed))
		Expect(res.Elapsed).To(Equal(2 * time.Second))
		l, r := w.Travel()
		Expect(l).To(BeNumerically("~", 12, 1e-9))
		Expect(r).To(BeNumerically("~", 12, 1e-9))

		left, right, _ := w.Command()
		Expect(left).To(BeZero())
		Expect(right).To(BeZero())
	})

	It("reverses for a negative distance", func() {
		d, w := newDrive(sim.PlantConfig{Response: 1}, toyConfig())

		d.TimedMove(-75, 100)

		l, _ := w.Travel()
		Expect(l).To(BeNumerically("~", -12, 1e-9))
	})

	It("turns for |deg|/90 quarter periods in the signed direction", func() {
		d, w := newDrive(sim.PlantConfig{TurnResponse: 1}, toyConfig())

		res := d.TimedTurn(-180, 100)

		Expect(res.Elapsed).To(Equal(800 * time.Millisecond))
		Expect(w.Rotation()).To(BeNumerically("~", -12*0.8, 1e-9))
	})

	It("does nothing for a zero distance", func() {
		d, w := newDrive(sim.PlantConfig{Response: 1}, toyConfig())

		res := d.TimedMove(0, 100)

		Expect(res.Elapsed).To(BeZero())
		Expect(w.Elapsed()).To(BeZero())
	})
})
