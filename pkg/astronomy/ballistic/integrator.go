package ballistic

import (
	"math"

	astromath "github.com/oxygene76/ballistics-client/pkg/astronomy/math"
)

// Advance performs up to budget semi-implicit Euler steps and returns the
// number actually taken. It stops early on impact; calling it again after
// impact does nothing.
//
// Each step evaluates gravity at the starting position, updates velocity
// (kick), then moves the position with the updated velocity (drift).
func Advance(s *State, budget int) int {
	if s.impact {
		return 0
	}
	if s.iterations == 0 && len(s.log) == 0 {
		sample(s)
	}

	steps := 0
	for ; steps < budget; steps++ {
		t := s.position.Dot(s.position)
		d := math.Sqrt(t)
		if d <= s.radius {
			break
		}

		// Unit vector toward the center, scaled by G/r².
		acc := astromath.Vector3{X: -s.position.X / d, Y: -s.position.Y / d, Z: -s.position.Z / d}.
			Scale(s.g / t)

		s.velocity = s.velocity.Add(acc.Scale(s.dt))
		s.position = s.position.Add(s.velocity.Scale(s.dt))
		s.iterations++

		sample(s)
	}

	if !s.impact {
		s.impact = s.position.Magnitude() <= s.radius
	}
	return steps
}

// sample appends a log entry when the iteration count lands exactly on the
// next boundary. The next boundary is derived from the sample count, not by
// accumulation, so rounding in logInterval/dt does not drift.
func sample(s *State) {
	if s.iterations != s.nextLogIteration {
		return
	}

	s.log = append(s.log, Sample{
		Time:   s.Elapsed(),
		X:      s.position.X,
		Y:      s.position.Y,
		Z:      s.position.Z,
		Height: s.Height(),
	})
	s.nextLogIteration = int(math.Round(float64(len(s.log)) * s.logInterval / s.dt))
}
