// Package compute runs many launches concurrently, varying one launch
// parameter across a range.
package compute

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/analysis"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/runner"
	"github.com/oxygene76/ballistics-client/pkg/units"
	"github.com/oxygene76/ballistics-client/pkg/utils"
)

// Axis names the launch parameter a sweep varies.
type Axis string

const (
	AxisAlt    Axis = "alt"
	AxisAzm    Axis = "azm"
	AxisSpeed  Axis = "speed"
	AxisHeight Axis = "height"
	AxisLat    Axis = "lat"
)

const (
	// MaxPoints bounds a single sweep.
	MaxPoints = 1000

	// DefaultMaxSteps caps each launch when the request sets no limit, so
	// that escaping trajectories end.
	DefaultMaxSteps = 10_000_000
)

// Axes lists the supported axes.
func Axes() []Axis {
	return []Axis{AxisAlt, AxisAzm, AxisSpeed, AxisHeight, AxisLat}
}

// Parse converts a display value for this axis to SI units.
func (a Axis) Parse(s string) (float64, error) {
	switch a {
	case AxisAlt, AxisAzm, AxisLat:
		return units.ParseAngle(s)
	case AxisSpeed:
		return units.ParseSpeed(s)
	case AxisHeight:
		return units.ParseDistance(s)
	}
	return 0, errorsmod.Wrapf(types.ErrInvalidConfig, "unknown sweep axis %q", a)
}

func (a Axis) set(cfg *ballistic.LaunchConfig, v float64) {
	switch a {
	case AxisAlt:
		cfg.Alt = v
	case AxisAzm:
		cfg.Azm = v
	case AxisSpeed:
		cfg.Speed = v
	case AxisHeight:
		cfg.Height = v
	case AxisLat:
		cfg.Lat = v
	}
}

// Request describes a sweep. Values are in SI units.
type Request struct {
	Base    ballistic.LaunchConfig
	Axis    Axis
	From    float64
	To      float64
	Points  int
	Workers int // 0 = GOMAXPROCS
	Options runner.Options
}

// Validate checks the request shape and every launch the sweep would run.
func (r Request) Validate() error {
	switch {
	case r.Points < 1:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "points must be at least 1, got %d", r.Points)
	case r.Points > MaxPoints:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "points must be at most %d, got %d", MaxPoints, r.Points)
	case r.Workers < 0:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "workers cannot be negative, got %d", r.Workers)
	}
	if _, err := r.Axis.Parse("0"); err != nil {
		return err
	}
	for _, v := range r.Values() {
		if err := utils.ValidateLaunch(r.launch(v)); err != nil {
			return errorsmod.Wrapf(err, "%s=%g", r.Axis, v)
		}
	}
	return nil
}

// launch is the base config with the axis set to v.
func (r Request) launch(v float64) ballistic.LaunchConfig {
	cfg := r.Base
	r.Axis.set(&cfg, v)
	return cfg
}

// Values returns the evenly spaced axis values, From and To included.
func (r Request) Values() []float64 {
	vals := make([]float64, r.Points)
	if r.Points == 1 {
		vals[0] = r.From
		return vals
	}
	step := (r.To - r.From) / float64(r.Points-1)
	for i := range vals {
		vals[i] = r.From + float64(i)*step
	}
	vals[r.Points-1] = r.To
	return vals
}

func (r Request) options() runner.Options {
	opts := r.Options
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return opts
}

func (r Request) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Point is the outcome of one launch in a sweep.
type Point struct {
	Value   float64          `json:"value"` // SI units
	Status  types.RunStatus  `json:"status"`
	Summary analysis.Summary `json:"summary"`
}

// Result collects a finished sweep in axis order.
type Result struct {
	Axis     Axis          `json:"axis"`
	Points   []Point       `json:"points"`
	Duration time.Duration `json:"duration"`
}

// Longest returns the index of the impacting point with the largest ground
// range, or -1 when nothing came down.
func (r Result) Longest() int {
	best := -1
	for i, p := range r.Points {
		if p.Status != types.StatusImpact {
			continue
		}
		if best < 0 || p.Summary.GroundRange > r.Points[best].Summary.GroundRange {
			best = i
		}
	}
	return best
}

// Sweep runs one simulation per axis value on a bounded worker pool.
// Cancelling ctx stops all workers; the first error aborts the sweep.
// progress, if not nil, is called after each point from the worker that
// finished it.
func Sweep(ctx context.Context, req Request, log zerolog.Logger, progress func(done, total int)) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	values := req.Values()
	points := make([]Point, len(values))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.workers())

	log.Info().
		Str("axis", string(req.Axis)).
		Int("points", len(values)).
		Int("workers", req.workers()).
		Msg("sweep started")

	for i, v := range values {
		i, v := i, v
		g.Go(func() error {
			cfg := req.launch(v)

			s, err := runner.RunSync(gctx, cfg, req.options(), nil)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", req.Axis, v, err)
			}

			status := types.StatusStepLimit
			if s.Impact() {
				status = types.StatusImpact
			}
			points[i] = Point{Value: v, Status: status, Summary: analysis.Summarize(cfg, s)}

			mu.Lock()
			done++
			n := done
			mu.Unlock()

			log.Debug().
				Str("axis", string(req.Axis)).
				Float64("value", v).
				Str("status", string(status)).
				Int("iterations", s.Iterations()).
				Msg("sweep point")
			if progress != nil {
				progress(n, len(values))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Axis: req.Axis, Points: points, Duration: time.Since(start)}
	log.Info().
		Str("axis", string(req.Axis)).
		Dur("duration", res.Duration).
		Msg("sweep finished")
	return res, nil
}
