package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"

	"github.com/cbegin/phiview-go"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "phiview",
	Short:         "Rhythm game chart viewer",
	Long:          `phiview plays a chart against its music, or inspects and renders it headlessly.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("bad --log-level %q: %w", logLevel, err)
		}
		phiview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if issue := fmsg.GetIssue(err); issue != "" {
			fmt.Fprintln(os.Stderr, issue)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
