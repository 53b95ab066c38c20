package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/drivectl/internal/hal"
	"github.com/san-kum/drivectl/internal/route"
	"github.com/san-kum/drivectl/internal/safety"
	"github.com/san-kum/drivectl/internal/sim"
	"github.com/san-kum/drivectl/internal/task"
)

// conveyorRig is the simulated intake: conveyor motor, color sensor and
// ejector piston.
type conveyorRig struct {
	conveyor *sim.Conveyor
	color    *sim.ColorSensor
	ejector  *sim.Gate
	bus      *hal.Bus
}

func newConveyorRig(initial hal.Directive) *conveyorRig {
	c := &conveyorRig{
		conveyor: sim.NewConveyor(),
		color:    sim.NewColorSensor(),
		ejector:  &sim.Gate{},
		bus:      hal.NewBus(initial),
	}
	c.color.Set(hue, saturation)
	return c
}

func (c *conveyorRig) devices() safety.Devices {
	return safety.Devices{Conveyor: c.conveyor, Color: c.color, Gate: c.ejector}
}

func printStats(s safety.Stats, c *conveyorRig) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKS\tEJECTS\tPULSES\tEJECTOR TOGGLES\tCONVEYOR")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", s.Ticks, s.Ejects, s.Pulses, c.ejector.Toggles(), c.bus.Load())
	return w.Flush()
}

func runRoute(cmd *cobra.Command, args []string) (err error) {
	r, err := route.Load(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger()
	robot, err := newRig(cfg, realtime, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, robot.Close()) }()

	intake := newConveyorRig(hal.Stop)
	guard := safety.New(cfg.Safety, intake.devices(), intake.bus, logger)

	sched := task.NewScheduler(logger)
	if err := sched.Every("conveyor-safety", cfg.Safety.Period, guard.Tick); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := route.NewRunner(route.Env{
		Drive:    robot.drive,
		Bus:      intake.bus,
		Gate:     &sim.Gate{},
		Inertial: robot.world,
		Clock:    robot.world,
	}, logger)

	fmt.Printf("route: %s (%d steps)\n", r.Name, len(r.Steps))
	results, runErr := runner.Run(ctx, r)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTEP\tOUTCOME\tFINAL\tELAPSED")
	for _, sr := range results {
		outcome, final := "-", "-"
		if sr.Motion != nil {
			outcome, final = sr.Motion.Outcome.String(), fmt.Sprintf("%.2f", sr.Motion.Final)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\n", sr.Index+1, sr.Step, outcome, final, sr.Elapsed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sched.Stop()
	if err := printStats(guard.Stats(), intake); err != nil {
		return err
	}
	return runErr
}

func runSort(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	intake := newConveyorRig(hal.Forward)
	if jam != 0 {
		intake.conveyor.Jam(jam)
	}
	guard := safety.New(cfg.Safety, intake.devices(), intake.bus, logger)

	ctx, cancel := context.WithTimeout(context.Background(), runFor)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("conveyor safety: alliance %s, sorting %v, %v\n", cfg.Safety.Alliance, cfg.Safety.Sorting, runFor)
	// the task only ends when its context does
	if err := guard.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	return printStats(guard.Stats(), intake)
}
