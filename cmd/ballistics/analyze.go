package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxygene76/ballistics-client/pkg/analysis"
)

// analyzeCmd inspects a CSV log written by simulate --csv or the API
var analyzeCmd = &cobra.Command{
	Use:   "analyze <log.csv>",
	Short: "Summarize a trajectory log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := analysis.LoadSamples(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		if len(samples) == 0 {
			fmt.Println("no samples")
			return nil
		}

		first, last := samples[0], samples[len(samples)-1]
		mean, std := analysis.SampleSpacing(samples)

		fmt.Printf("Samples:   %d\n", len(samples))
		fmt.Printf("Span:      %.3f s .. %.3f s\n", first.Time, last.Time)
		fmt.Printf("Spacing:   %.6f ± %.6f s\n", mean, std)
		fmt.Printf("Apex:      %.3f m\n", analysis.ApexHeight(samples))
		fmt.Printf("Last:      %.3f m above the surface\n", last.Height)
		return nil
	},
}
