package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cbegin/phiview-go"
	intchart "github.com/cbegin/phiview-go/internal/chart"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chart.json>",
	Short: "Print what a chart contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		c, err := intchart.Load(f)
		if err != nil {
			return err
		}
		inspect(c)
		return nil
	},
}

func inspect(c *intchart.Chart) {
	s := phiview.Summarize(c)
	fmt.Printf("format version: %d\n", s.FormatVersion)
	fmt.Printf("offset:         %.3f s\n", s.Offset)
	fmt.Printf("judge lines:    %d\n", s.Lines)
	fmt.Printf("notes:          %d (%d simultaneous)\n", s.Notes, s.Siblings)
	fmt.Printf("last note:      %.0f ms\n", s.LastNote)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "type\tabove\tbelow")
	for _, t := range []intchart.NoteType{intchart.Tap, intchart.Catch, intchart.Hold, intchart.Flick, intchart.Dummy} {
		counts, ok := s.ByType[t]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\n", t, counts[intchart.Above], counts[intchart.Below])
	}
	w.Flush()
}
