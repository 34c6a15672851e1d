package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sarchlab/llrf/datarecording"
	"github.com/sarchlab/llrf/plotting"
)

var (
	plotStation  string
	plotOutDir   string
	plotTailFrac float64
)

var plotCmd = &cobra.Command{
	Use:   "plot [trace.sqlite3]",
	Short: "Plot the amplitude, phase and I/Q trajectory of a recorded run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return plotTrace(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)

	plotCmd.Flags().StringVar(&plotStation, "station",
		envString("LLRF_STATION", ""),
		"Station to plot. All recorded stations if empty.")
	plotCmd.Flags().StringVar(&plotOutDir, "out",
		envString("LLRF_PLOT_DIR", "plots"),
		"Directory of the figures.")
	plotCmd.Flags().Float64Var(&plotTailFrac, "tail",
		envFloat("LLRF_PLOT_TAIL", 0.2),
		"Fraction of the run used for the error statistics.")
}

func plotTrace(ctx context.Context, dbFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := datarecording.NewReader(dbFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	stations := []string{plotStation}
	if plotStation == "" {
		stations, err = plotting.Locations(ctx, reader)
		if err != nil {
			return err
		}
	}

	if len(stations) == 0 {
		return fmt.Errorf("%s contains no station", dbFile)
	}

	for _, name := range stations {
		trace, err := plotting.LoadTrace(ctx, reader, name)
		if err != nil {
			return err
		}

		files, err := plotting.SaveAll(plotOutDir, trace)
		if err != nil {
			return err
		}

		s := plotting.Summarize(trace, plotTailFrac)
		slog.Info("station plotted",
			"station", name,
			"samples", s.Samples,
			"final_probe", fmt.Sprintf("%.6g", s.FinalProbe),
			"peak_probe", s.PeakProbe,
			"tail_mean_error", s.TailMeanErr,
			"tail_std_error", s.TailStdDevErr,
			"files", files,
		)
	}

	return nil
}
