package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxygene76/ballistics-client/pkg/compute"
)

// sweepCmd varies one launch parameter and runs the launches in parallel
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a launch for each value of one parameter",
	Long: `Run one simulation per value of --axis, evenly spaced from --from to --to,
on a pool of --workers goroutines. Every other launch parameter comes from
the config, --preset and the simulate flags. Launches that never come down
stop at --max-steps (default 10,000,000).`,
	Example: `  ballistics sweep --axis alt --from 10 --to 80 --points 15
  ballistics sweep --preset moon --axis speed --from "100 m/s" --to "1.5 km/s" --points 8 --json`,
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	addLaunchFlags(f)
	axes := make([]string, 0, len(compute.Axes()))
	for _, a := range compute.Axes() {
		axes = append(axes, string(a))
	}
	f.String("axis", string(compute.AxisAlt), "parameter to vary ("+strings.Join(axes, ", ")+")")
	f.String("from", "", "first value, in the axis' units")
	f.String("to", "", "last value, in the axis' units")
	f.Int("points", 10, "number of launches")
	f.Int("workers", 0, "concurrent launches (default GOMAXPROCS)")
	f.Bool("json", false, "print the result as JSON")
	_ = sweepCmd.MarkFlagRequired("from")
	_ = sweepCmd.MarkFlagRequired("to")
}

func runSweep(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	sim, err := simulationFromFlags(flags, appConfig.Simulation)
	if err != nil {
		return err
	}
	base, err := sim.LaunchConfig()
	if err != nil {
		return err
	}

	axisName, _ := flags.GetString("axis")
	axis := compute.Axis(axisName)
	fromStr, _ := flags.GetString("from")
	toStr, _ := flags.GetString("to")
	from, err := axis.Parse(fromStr)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := axis.Parse(toStr)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	points, _ := flags.GetInt("points")
	workers, _ := flags.GetInt("workers")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := compute.Sweep(ctx, compute.Request{
		Base:    base,
		Axis:    axis,
		From:    from,
		To:      to,
		Points:  points,
		Workers: workers,
		Options: runnerOptions(flags, appConfig.Runner),
	}, logger, func(done, total int) {
		logger.Debug().Int("done", done).Int("total", total).Msg("sweep progress")
	})
	if err != nil {
		return err
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	display := axisDisplay(axis)
	best := res.Longest()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\tstatus\tflight (s)\trange (m)\tapex (m)\tlanding lat\tlanding lon\t\n", axis)
	for i, p := range res.Points {
		mark := ""
		if i == best {
			mark = "*"
		}
		s := p.Summary
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3f\t%.6f\t%.6f\t%s\n",
			display(p.Value), p.Status, s.FlightTime, s.GroundRange, s.ApexHeight,
			s.ImpactLatitude, s.ImpactLongitude, mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d launches in %s\n", len(res.Points), res.Duration.Round(time.Millisecond))
	return nil
}

// axisDisplay formats an SI axis value the way it is entered.
func axisDisplay(a compute.Axis) func(float64) string {
	switch a {
	case compute.AxisAlt, compute.AxisAzm, compute.AxisLat:
		return func(v float64) string { return fmt.Sprintf("%.4f°", v*180/math.Pi) }
	case compute.AxisSpeed:
		return func(v float64) string { return fmt.Sprintf("%.3f m/s", v) }
	}
	return func(v float64) string { return fmt.Sprintf("%.3f m", v) }
}
