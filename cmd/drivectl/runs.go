package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/drivectl/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSETPOINT\tOUTCOME\tTICKS\tFINAL\tPRESET")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%d\t%.3f\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Setpoint,
			run.Outcome,
			run.Ticks,
			run.Final,
			run.Preset,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return errors.New("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("%s %.2f: %s after %d ticks\n\n", meta.Kind, meta.Setpoint, meta.Outcome, meta.Ticks)

	measured := make([]float64, len(samples))
	target := make([]float64, len(samples))
	output := make([]float64, len(samples))
	for i, s := range samples {
		measured[i], target[i], output[i] = s.Measurement, meta.Setpoint, s.Output
	}

	fmt.Println(asciigraph.PlotMany([][]float64{measured, target},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("measurement vs setpoint"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(output,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("controller output"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	samples, err := storage.New(dataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(args[1], samples); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), args[1])
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return storage.WriteJSON(os.Stdout, *meta, samples)
	}
	if err := storage.ExportJSON(args[1], *meta, samples); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", meta.ID, args[1])
	return nil
}
