// Package cmd provides the command-line interface of the LLRF station
// simulator.
package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llrf",
	Short: "LLRF simulates the RF feedback loop of a superconducting cavity.",
	Long: `LLRF simulates an RF station, made of a PI controller, a solid ` +
		`state amplifier and a superconducting cavity, one time step at a ` +
		`time. Defaults of most flags can be set with LLRF_* environment ` +
		`variables or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging(logLevel)
	},
}

func init() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level",
		envString("LLRF_LOG_LEVEL", "info"),
		"Log level: debug, info, warn or error.")
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      l,
			TimeFormat: "15:04:05",
		}),
	))

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
