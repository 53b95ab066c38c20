package main

import (
	"fmt"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"

	"github.com/san-kum/drivectl/internal/config"
)

var (
	dataDir    string
	configFile string
	preset     string
	debug      bool
	serialPort string
	baud       int

	velocity float64
	timeout  time.Duration
	kp       float64
	ki       float64
	kd       float64
	timed    bool
	heading  float64
	noise    float64
	seed     int64
	noSave   bool

	realtime   bool
	alliance   string
	noSort     bool
	hue        float64
	saturation float64
	jam        int
	runFor     time.Duration

	kpRange string
	kiRange string
	kdRange string
	metric  string
	top     int

	writePath string
)

// main registers the drivectl commands and runs the root command. It exits
// with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "drivectl",
		Short:         "closed-loop tank drive controller and simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".drivectl", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging, including every control tick")
	rootCmd.PersistentFlags().StringVar(&serialPort, "serial", "", "also send drivetrain commands to this serial port")
	rootCmd.PersistentFlags().IntVar(&baud, "baud", 115200, "serial baud rate")

	moveCmd := &cobra.Command{
		Use:   "move [distance]",
		Short: "drive straight to a distance",
		Args:  cobra.ExactArgs(1),
		RunE:  runMove,
	}
	motionFlags(moveCmd)

	turnCmd := &cobra.Command{
		Use:   "turn [degrees]",
		Short: "turn in place to an absolute heading",
		Args:  cobra.ExactArgs(1),
		RunE:  runTurn,
	}
	motionFlags(turnCmd)
	turnCmd.Flags().Float64Var(&heading, "heading", 0, "initial heading")

	routeCmd := &cobra.Command{
		Use:   "route [file]",
		Short: "run a route file with the conveyor safety task alongside",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoute,
	}
	safetyFlags(routeCmd)
	routeCmd.Flags().BoolVar(&realtime, "realtime", true, "run the simulated drivetrain in real time")

	sortCmd := &cobra.Command{
		Use:   "sort",
		Short: "run the conveyor safety task on its own",
		RunE:  runSort,
	}
	safetyFlags(sortCmd)
	sortCmd.Flags().DurationVar(&runFor, "time", 2*time.Second, "how long to run")
	sortCmd.Flags().IntVar(&jam, "jam", 0, "jam the conveyor for this many samples (-1 forever)")

	tuneCmd := &cobra.Command{
		Use:   "tune [move|turn] [setpoint]",
		Short: "grid search gains against the simulated drivetrain",
		Args:  cobra.ExactArgs(2),
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&kpRange, "kp", "0.1:1.0:10", "kp range lo:hi:n")
	tuneCmd.Flags().StringVar(&kiRange, "ki", "0", "ki range lo:hi:n")
	tuneCmd.Flags().StringVar(&kdRange, "kd", "0:0.5:6", "kd range lo:hi:n")
	tuneCmd.Flags().StringVar(&metric, "metric", "iae", "metric to minimise")
	tuneCmd.Flags().IntVar(&top, "top", 5, "candidates to show")

	liveCmd := &cobra.Command{
		Use:   "live [move|turn] [setpoint]",
		Short: "run a primitive with a live terminal view",
		Args:  cobra.ExactArgs(2),
		RunE:  runLive,
	}
	motionFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [file]",
		Short: "export a run trace to CSV",
		Args:  cobra.ExactArgs(2),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [file]",
		Short: "export a run and its trace to JSON (stdout without a file)",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE:  showConfig,
	}
	configCmd.Flags().StringVar(&writePath, "write", "", "write the configuration to this file instead")

	rootCmd.AddCommand(moveCmd, turnCmd, routeCmd, sortCmd, tuneCmd, liveCmd, listCmd, plotCmd,
		exportCmd, exportCSVCmd, exportJSONCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func motionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&velocity, "velocity", 100, "velocity cap in percent")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "timeout (default from config)")
	cmd.Flags().Float64Var(&kp, "kp", 0, "override kp")
	cmd.Flags().Float64Var(&ki, "ki", 0, "override ki")
	cmd.Flags().Float64Var(&kd, "kd", 0, "override kd")
	cmd.Flags().BoolVar(&timed, "timed", false, "open loop, by time")
	cmd.Flags().Float64Var(&noise, "noise", 0, "sensor noise standard deviation")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
}

func safetyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&alliance, "alliance", "", "alliance color: red or blue")
	cmd.Flags().BoolVar(&noSort, "no-sort", false, "disable color sorting")
	cmd.Flags().Float64Var(&hue, "hue", 0, "simulated color sensor hue")
	cmd.Flags().Float64Var(&saturation, "saturation", 0, "simulated color sensor saturation")
}

func newLogger() golog.Logger {
	if debug {
		return golog.NewDevelopmentLogger("drivectl")
	}
	return golog.NewLogger("drivectl")
}
