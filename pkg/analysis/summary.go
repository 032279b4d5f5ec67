package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/orbital"
)

// Summary describes a finished (or interrupted) trajectory.
type Summary struct {
	Impact     bool    `json:"impact"`
	FlightTime float64 `json:"flight_time"` // seconds
	Iterations int     `json:"iterations"`

	LaunchLatitude  float64          `json:"launch_latitude"` // degrees
	LaunchLongitude float64          `json:"launch_longitude"`
	ImpactLatitude  float64          `json:"impact_latitude"` // degrees, body-fixed
	ImpactLongitude float64          `json:"impact_longitude"`
	GroundRange     float64          `json:"ground_range"`   // meters along the surface
	ApexHeight      float64          `json:"apex_height"`    // highest sampled height
	PredictedApex   float64          `json:"predicted_apex"` // two-body apex from the launch state, zero if Escapes
	Escapes         bool             `json:"escapes"`
	Suborbital      bool             `json:"suborbital"`     // bound two-body orbit that meets the surface
	LaunchSpeed     float64          `json:"launch_speed"`   // inertial, m/s
	CircularSpeed   float64          `json:"circular_speed"` // at the launch radius
	EscapeSpeed     float64          `json:"escape_speed"`
	EnergyDrift     float64          `json:"energy_drift"` // relative change of specific energy
	Samples         int              `json:"samples"`
	SpacingMean     float64          `json:"spacing_mean"` // seconds between samples
	SpacingStdDev   float64          `json:"spacing_stddev"`
	LaunchOrbit     orbital.Elements `json:"launch_orbit"`
}

// Summarize compares the current state of a run with the configuration that
// started it.
func Summarize(cfg ballistic.LaunchConfig, s *ballistic.State) Summary {
	initial := ballistic.New(cfg)
	info := ballistic.Report(s)
	launch := ballistic.Report(initial)
	samples := s.Log()

	mu, r0 := initial.G(), initial.Position().Magnitude()
	launchOrbit := orbital.FromStateVector(initial.Position(), initial.Velocity(), mu)

	sum := Summary{
		Impact:          info.Impact,
		FlightTime:      info.Time,
		Iterations:      info.Iterations,
		LaunchLatitude:  launch.Latitude,
		LaunchLongitude: launch.Longitude,
		ImpactLatitude:  info.Latitude,
		ImpactLongitude: info.Longitude,
		GroundRange:     GreatCircle(launch.Latitude, launch.Longitude, info.Latitude, info.Longitude, cfg.Radius),
		ApexHeight:      math.Max(ApexHeight(samples), info.Height),
		Escapes:         !launchOrbit.Bound(),
		Suborbital:      launchOrbit.Bound() && launchOrbit.Suborbital(cfg.Radius),
		LaunchSpeed:     initial.Velocity().Magnitude(),
		CircularSpeed:   orbital.CircularSpeed(mu, r0),
		EscapeSpeed:     orbital.EscapeSpeed(mu, r0),
		EnergyDrift:     RelativeDrift(ballistic.SpecificEnergy(initial), ballistic.SpecificEnergy(s)),
		Samples:         len(samples),
		LaunchOrbit:     launchOrbit,
	}
	if launchOrbit.Bound() {
		sum.PredictedApex = launchOrbit.ApexHeight(cfg.Radius)
	}
	sum.SpacingMean, sum.SpacingStdDev = SampleSpacing(samples)
	return sum
}

// ApexHeight returns the largest height in samples, or -Inf when empty.
func ApexHeight(samples []ballistic.Sample) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	heights := make([]float64, len(samples))
	for i, s := range samples {
		heights[i] = s.Height
	}
	return floats.Max(heights)
}

// SampleSpacing returns the mean and standard deviation of the time between
// consecutive samples. Fewer than two samples give zeros; exactly two give a
// zero deviation.
func SampleSpacing(samples []ballistic.Sample) (mean, std float64) {
	if len(samples) < 2 {
		return 0, 0
	}
	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
	}
	gaps := make([]float64, len(times)-1)
	floats.SubTo(gaps, times[1:], times[:len(times)-1])
	if len(gaps) == 1 {
		return gaps[0], 0
	}
	return stat.MeanStdDev(gaps, nil)
}

// GreatCircle returns the surface distance between two coordinates given in
// degrees on a sphere of the given radius.
func GreatCircle(lat1, lon1, lat2, lon2, radius float64) float64 {
	const d2r = math.Pi / 180
	phi1, phi2 := lat1*d2r, lat2*d2r
	dPhi := phi2 - phi1
	dLambda := (lon2 - lon1) * d2r

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * radius * math.Asin(math.Min(1, math.Sqrt(a)))
}

// RelativeDrift is (after-before)/|before|. A zero reference yields the
// absolute difference.
func RelativeDrift(before, after float64) float64 {
	if before == 0 {
		return after
	}
	return (after - before) / math.Abs(before)
}

// String renders the summary for terminal output.
func (s Summary) String() string {
	status := "in flight"
	if s.Impact {
		status = "impact"
	}
	predicted := "escapes"
	switch {
	case s.Suborbital:
		predicted = fmt.Sprintf("%.3f m, suborbital", s.PredictedApex)
	case !s.Escapes:
		predicted = fmt.Sprintf("%.3f m, orbits", s.PredictedApex)
	}
	return fmt.Sprintf(
		"%s after %.3f s (%d steps)\n"+
			"launch  %.6f°, %.6f°\n"+
			"landing %.6f°, %.6f°\n"+
			"range %.3f m, apex %.3f m (two-body %s)\n"+
			"speed %.3f m/s (circular %.3f, escape %.3f)\n"+
			"%d samples, spacing %.6f ± %.6f s, energy drift %.3e",
		status, s.FlightTime, s.Iterations,
		s.LaunchLatitude, s.LaunchLongitude,
		s.ImpactLatitude, s.ImpactLongitude,
		s.GroundRange, s.ApexHeight, predicted,
		s.LaunchSpeed, s.CircularSpeed, s.EscapeSpeed,
		s.Samples, s.SpacingMean, s.SpacingStdDev, s.EnergyDrift,
	)
}
