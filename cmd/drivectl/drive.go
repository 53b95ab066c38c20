package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivectl/internal/config"
	"github.com/san-kum/drivectl/internal/hal"
	"github.com/san-kum/drivectl/internal/metrics"
	"github.com/san-kum/drivectl/internal/motion"
	"github.com/san-kum/drivectl/internal/optim"
	"github.com/san-kum/drivectl/internal/pid"
	"github.com/san-kum/drivectl/internal/safety"
	"github.com/san-kum/drivectl/internal/serialbus"
	"github.com/san-kum/drivectl/internal/sim"
	"github.com/san-kum/drivectl/internal/storage"
	"github.com/san-kum/drivectl/internal/viz"
)

// loadConfig applies, in order: defaults, preset, config file, flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Lookup("noise") != nil && flags.Changed("noise") {
		cfg.Plant.Noise = noise
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		cfg.Plant.Seed = seed
	}
	if flags.Lookup("alliance") != nil && flags.Changed("alliance") {
		cfg.Safety.Alliance = safety.Alliance(alliance)
	}
	if flags.Lookup("no-sort") != nil && flags.Changed("no-sort") {
		cfg.Safety.Sorting = !noSort
	}
	return cfg, cfg.Validate()
}

// overrideGains applies --kp/--ki/--kd to the axes a primitive uses.
func overrideGains(cmd *cobra.Command, cfg *config.Config, kind motion.Kind) {
	apply := func(g *pid.Gains) {
		if cmd.Flags().Changed("kp") {
			g.Kp = kp
		}
		if cmd.Flags().Changed("ki") {
			g.Ki = ki
		}
		if cmd.Flags().Changed("kd") {
			g.Kd = kd
		}
	}
	if kind == motion.Turn || kind == motion.TimedTurn {
		apply(&cfg.Gains.Left)
		apply(&cfg.Gains.Right)
		return
	}
	apply(&cfg.Gains.Lateral)
}

func gainsByAxis(cfg *config.Config) map[string]pid.Gains {
	return map[string]pid.Gains{
		pid.Lateral.String(): cfg.Gains.Lateral,
		pid.Left.String():    cfg.Gains.Left,
		pid.Right.String():   cfg.Gains.Right,
	}
}

// rig is a simulated robot, optionally mirrored to a real motor controller.
type rig struct {
	world *sim.World
	drive *motion.Drive
	sink  *serialbus.Sink
}

// Commands mirrored to real motors are always paced in real time.
func newRig(cfg *config.Config, live bool, logger golog.Logger) (*rig, error) {
	world := sim.NewWorld(cfg.Plant)
	if live || serialPort != "" {
		world = sim.NewRealtimeWorld(cfg.Plant)
	}
	r := &rig{world: world}

	var dt hal.Drivetrain = world
	if serialPort != "" {
		sink, err := serialbus.Open(serialPort, baud, logger)
		if err != nil {
			return nil, err
		}
		r.sink = sink
		dt = tee{world, sink}
	}

	hw := motion.Hardware{Drivetrain: dt, Encoders: world, Inertial: world, Clock: world}
	r.drive = motion.New(cfg.Motion(), hw, logger)
	return r, nil
}

func (r *rig) Close() error {
	if r.sink == nil {
		return nil
	}
	return multierr.Combine(r.sink.Err(), r.sink.Close())
}

// tee sends every command to both drivetrains.
type tee [2]hal.Drivetrain

func (t tee) Drive(left, right float64) {
	t[0].Drive(left, right)
	t[1].Drive(left, right)
}

func (t tee) SetVelocityCap(pct float64) {
	t[0].SetVelocityCap(pct)
	t[1].SetVelocityCap(pct)
}

func (t tee) Stop() {
	t[0].Stop()
	t[1].Stop()
}

func parseSetpoint(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, errors.Errorf("invalid setpoint %q", arg)
	}
	return v, nil
}

func runMove(cmd *cobra.Command, args []string) error {
	return runPrimitive(cmd, args[0], motion.Move)
}

func runTurn(cmd *cobra.Command, args []string) error {
	return runPrimitive(cmd, args[0], motion.Turn)
}

func runPrimitive(cmd *cobra.Command, arg string, kind motion.Kind) (err error) {
	setpoint, err := parseSetpoint(arg)
	if err != nil {
		return err
	}
	if timed {
		if kind == motion.Turn {
			kind = motion.TimedTurn
		} else {
			kind = motion.TimedMove
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	overrideGains(cmd, cfg, kind)

	logger := newLogger()
	r, err := newRig(cfg, false, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, r.Close()) }()
	if kind == motion.Turn || kind == motion.TimedTurn {
		r.world.SetRotation(heading)
	}

	req := motion.Request{Setpoint: setpoint, Velocity: velocity, Timeout: timeout}
	var res motion.Result
	switch kind {
	case motion.Move:
		res = r.drive.Move(req)
	case motion.Turn:
		res = r.drive.Turn(req)
	case motion.TimedMove:
		res = r.drive.TimedMove(setpoint, velocity)
	case motion.TimedTurn:
		res = r.drive.TimedTurn(setpoint, velocity)
	}

	return report(cfg, res)
}

// report prints a result and stores it unless --no-save.
func report(cfg *config.Config, res motion.Result) error {
	fmt.Println(res)
	if len(res.Samples) > 0 {
		fmt.Printf("ticks: %d (strike limit %d, max output %.1f)\n", res.Ticks, res.Settings.StrikeLimit, res.Settings.MaxOutput)
	}

	m := metrics.Evaluate(res)
	if len(res.Samples) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tVALUE")
		for _, name := range []string{"settle_time", "overshoot", "iae", "control_effort", "final_error"} {
			fmt.Fprintf(w, "%s\t%.4f\n", name, m[name])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(preset, gainsByAxis(cfg), res, m)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func parseKind(arg string) (motion.Kind, error) {
	switch arg {
	case "move":
		return motion.Move, nil
	case "turn":
		return motion.Turn, nil
	}
	return 0, errors.Errorf("unknown primitive %q (move or turn)", arg)
}

func runLive(cmd *cobra.Command, args []string) (err error) {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	setpoint, err := parseSetpoint(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	overrideGains(cmd, cfg, kind)

	// the view owns the terminal; keep log output to errors
	logger := golog.NewLogger("drivectl")
	r, err := newRig(cfg, true, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, r.Close()) }()

	feed := viz.NewFeed(64)
	r.drive.AddObserver(feed)
	req := motion.Request{Setpoint: setpoint, Velocity: velocity, Timeout: timeout}
	go func() {
		if kind == motion.Turn {
			feed.Finish(r.drive.Turn(req))
			return
		}
		feed.Finish(r.drive.Move(req))
	}()

	settings := cfg.Move
	if kind == motion.Turn {
		settings = cfg.Turn
	}
	title := fmt.Sprintf("%s %.2f", kind, setpoint)
	final, err := tea.NewProgram(viz.NewModel(feed, title, setpoint, settings.StrikeLimit)).Run()
	if err != nil {
		return errors.Wrap(err, "live view")
	}

	if res, ok := final.(viz.Model).Result(); ok {
		return report(cfg, res)
	}
	return nil
}

// parseRange reads "lo:hi:n" or a single value.
func parseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	vals := make([]float64, 0, 2)
	for _, p := range parts[:min(2, len(parts))] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.Errorf("invalid range %q", s)
		}
		vals = append(vals, v)
	}
	switch len(parts) {
	case 1:
		return vals, nil
	case 3:
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return nil, errors.Errorf("invalid range count in %q", s)
		}
		return optim.Span(vals[0], vals[1], n), nil
	}
	return nil, errors.Errorf("invalid range %q, want lo:hi:n", s)
}

func runTune(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	setpoint, err := parseSetpoint(args[1])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var ranges [3][]float64
	for i, s := range []string{kpRange, kiRange, kdRange} {
		if ranges[i], err = parseRange(s); err != nil {
			return err
		}
	}

	grid := optim.NewGridSearch(ranges[0], ranges[1], ranges[2])
	fmt.Printf("searching %d gain sets for %s %.2f by %s\n", grid.Size(), kind, setpoint, metric)

	candidates, err := grid.Search(context.Background(), optim.SimObjective(cfg, kind, setpoint, metric))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KP\tKI\tKD\tCONVERGED\tSCORE\tSETTLE")
	for _, c := range candidates[:min(top, len(candidates))] {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%v\t%.4f\t%.3fs\n",
			c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, c.Converged, c.Score, c.Metrics["settle_time"])
	}
	return w.Flush()
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if writePath != "" {
		if err := config.Save(writePath, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", writePath)
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
