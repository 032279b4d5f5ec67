package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oxygene76/ballistics-client/pkg/analysis"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/runner"
	"github.com/oxygene76/ballistics-client/pkg/units"
	"github.com/oxygene76/ballistics-client/pkg/utils"
)

// simulateCmd runs one trajectory in the foreground
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a launch until impact",
	Long: `Simulate a launch from the configured (or preset) body until the projectile
hits the surface, --max-steps is reached or the command is interrupted.

The final report is printed as JSON. Samples can be streamed to a CSV file
(--csv, "-" for stdout) or a JSON lines file (--jsonl) while the run goes.`,
	Example: `  ballistics simulate --preset test-drop
  ballistics simulate --speed "7.9 km/s" --alt 0 --csv orbit.csv --summary
  ballistics simulate --preset moon --csv - > moon.csv`,
	RunE: runSimulate,
}

// simulationFlags maps flag names to the simulation field they override.
var simulationFlags = []struct {
	name  string
	usage string
	units func() []string
	field func(*utils.SimulationConfig) *string
}{
	{"lat", "launch latitude (degrees, or with rad)", nil, func(s *utils.SimulationConfig) *string { return &s.Lat }},
	{"lon", "launch longitude (degrees, or with rad)", nil, func(s *utils.SimulationConfig) *string { return &s.Lon }},
	{"height", "launch height above the surface (e.g. 10m, 2 km)", units.DistanceUnits, func(s *utils.SimulationConfig) *string { return &s.Height }},
	{"azm", "azimuth, clockwise from north", nil, func(s *utils.SimulationConfig) *string { return &s.Azm }},
	{"alt", "elevation above the local horizon", nil, func(s *utils.SimulationConfig) *string { return &s.Alt }},
	{"speed", "launch speed relative to the ground (e.g. 300 m/s, 1000 km/h)", units.SpeedUnits, func(s *utils.SimulationConfig) *string { return &s.Speed }},
	{"radius", "body radius", units.DistanceUnits, func(s *utils.SimulationConfig) *string { return &s.Radius }},
	{"rotation-period", "sidereal rotation period (negative spins westward)", nil, func(s *utils.SimulationConfig) *string { return &s.RotationPeriod }},
	{"delta-time", "integration step", nil, func(s *utils.SimulationConfig) *string { return &s.DeltaTime }},
	{"log-interval", "simulated time between samples (0 disables sampling)", nil, func(s *utils.SimulationConfig) *string { return &s.LogInterval }},
	{"g", "surface gravitational acceleration (m/s²)", nil, func(s *utils.SimulationConfig) *string { return &s.GSurfaceAcc }},
}

func init() {
	f := simulateCmd.Flags()
	addLaunchFlags(f)
	f.String("csv", "", "write samples as CSV to this file (- for stdout)")
	f.String("jsonl", "", "write config, samples and report as JSON lines to this file")
	f.Bool("summary", false, "print a trajectory summary to stderr")
}

// addLaunchFlags registers the flags shared by simulate and sweep.
func addLaunchFlags(f *pflag.FlagSet) {
	f.String("preset", "", "start from a body preset (see: ballistics presets)")
	for _, sf := range simulationFlags {
		usage := sf.usage
		if sf.units != nil {
			usage += "; units: " + strings.Join(sf.units(), ", ")
		}
		f.String(sf.name, "", usage)
	}
	f.Int("batch", 0, "integration steps per batch (default from config)")
	f.Int("max-steps", 0, "stop after this many steps (0 = until impact)")
}

// simulationFromFlags starts from the config (or a preset) and applies every
// flag the user set explicitly.
func simulationFromFlags(flags *pflag.FlagSet, base utils.SimulationConfig) (utils.SimulationConfig, error) {
	sim := base
	if name, _ := flags.GetString("preset"); name != "" {
		p, err := utils.GetPreset(name)
		if err != nil {
			return sim, err
		}
		sim = p.Simulation
	}
	for _, sf := range simulationFlags {
		if !flags.Changed(sf.name) {
			continue
		}
		v, _ := flags.GetString(sf.name)
		*sf.field(&sim) = v
	}
	return sim, nil
}

func runnerOptions(flags *pflag.FlagSet, cfg utils.RunnerConfig) runner.Options {
	opts := runner.Options{BatchSteps: cfg.BatchSteps, MaxSteps: cfg.MaxSteps}
	if flags.Changed("batch") {
		opts.BatchSteps, _ = flags.GetInt("batch")
	}
	if flags.Changed("max-steps") {
		opts.MaxSteps, _ = flags.GetInt("max-steps")
	}
	return opts
}

// openSinks opens the requested outputs. The returned bool reports whether
// stdout is taken by sample output.
func openSinks(flags *pflag.FlagSet) ([]ballistic.SnapshotSink, bool, error) {
	var (
		sinks  []ballistic.SnapshotSink
		stdout bool
	)
	if path, _ := flags.GetString("csv"); path != "" {
		if path == "-" {
			sinks = append(sinks, ballistic.NewCSVSnapshotStream(os.Stdout))
			stdout = true
		} else {
			w, err := ballistic.NewCSVSnapshotWriter(path)
			if err != nil {
				return nil, false, fmt.Errorf("failed to open CSV output: %w", err)
			}
			sinks = append(sinks, w)
		}
	}
	if path, _ := flags.GetString("jsonl"); path != "" {
		w, err := ballistic.NewJSONLSnapshotWriter(path)
		if err != nil {
			closeSinks(sinks)
			return nil, false, fmt.Errorf("failed to open JSONL output: %w", err)
		}
		sinks = append(sinks, w)
	}
	return sinks, stdout, nil
}

func closeSinks(sinks []ballistic.SnapshotSink) error {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	sim, err := simulationFromFlags(flags, appConfig.Simulation)
	if err != nil {
		return err
	}
	cfg, err := sim.LaunchConfig()
	if err != nil {
		return err
	}
	opts := runnerOptions(flags, appConfig.Runner)

	sinks, stdoutTaken, err := openSinks(flags)
	if err != nil {
		return err
	}
	defer closeSinks(sinks)

	for _, s := range sinks {
		if err := s.OnStart(cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Float64("speed", cfg.Speed).
		Float64("height", cfg.Height).
		Float64("radius", cfg.Radius).
		Float64("delta_time", cfg.DeltaTime).
		Msg("simulation started")

	started := time.Now()
	written := 0
	s, runErr := runner.RunSync(ctx, cfg, opts, func(s *ballistic.State) error {
		samples := s.Log()[written:]
		written = s.LogLen()
		for _, sink := range sinks {
			if err := sink.OnSamples(samples); err != nil {
				return err
			}
		}
		logger.Debug().
			Int("iterations", s.Iterations()).
			Float64("time", s.Elapsed()).
			Float64("height", s.Height()).
			Msg("batch")
		return nil
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	info := ballistic.Report(s)
	for _, sink := range sinks {
		if err := sink.OnEnd(info); err != nil {
			return err
		}
	}

	event := logger.Info()
	if errors.Is(runErr, context.Canceled) {
		event = logger.Warn()
	}
	event.
		Bool("impact", info.Impact).
		Int("iterations", info.Iterations).
		Float64("time", info.Time).
		Dur("wall", time.Since(started)).
		Msg("simulation finished")

	report := io.Writer(os.Stdout)
	if stdoutTaken {
		report = os.Stderr
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(report, string(b))

	if summary, _ := flags.GetBool("summary"); summary {
		fmt.Fprintln(os.Stderr, analysis.Summarize(cfg, s).String())
	}

	if errors.Is(runErr, context.Canceled) {
		return errors.New("interrupted")
	}
	return nil
}
