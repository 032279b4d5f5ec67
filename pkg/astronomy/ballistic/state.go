// Package ballistic simulates a point mass launched from a rotating spherical
// body under inverse-square central gravity until it hits the surface.
//
// A run is a *State built by New and advanced in caller-sized batches by
// Advance. Report reads the state without modifying it. The package does no
// locking: a State belongs to exactly one goroutine at a time.
package ballistic

import (
	astromath "github.com/oxygene76/ballistics-client/pkg/astronomy/math"
)

// Sample is one log entry: elapsed time, inertial position and height above
// the surface.
type Sample struct {
	Time   float64 `json:"time"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Height float64 `json:"height"`
}

// State is the mutable record of one run.
type State struct {
	position astromath.Vector3
	velocity astromath.Vector3

	// Fixed for the lifetime of the run.
	dt             float64
	radius         float64
	rotationPeriod float64
	g              float64
	logInterval    float64

	iterations       int
	impact           bool
	nextLogIteration int
	log              []Sample
}

// New builds the initial state for cfg: position and velocity in the inertial
// frame, which coincides with the body-fixed frame at t=0.
//
// Degenerate inputs such as lat = ±π/2 are not rejected; they follow IEEE
// floating-point rules.
func New(cfg LaunchConfig) *State {
	velocity := LaunchVelocity(cfg.Lat, cfg.Lon, cfg.Azm, cfg.Alt, cfg.Speed).
		Add(TangentialVelocity(cfg.Lat, cfg.Lon, cfg.Radius, cfg.Height, cfg.RotationPeriod))

	return &State{
		position:       LaunchPosition(cfg.Lat, cfg.Lon, cfg.Radius, cfg.Height),
		velocity:       velocity,
		dt:             cfg.DeltaTime,
		radius:         cfg.Radius,
		rotationPeriod: cfg.RotationPeriod,
		g:              cfg.GravitationalParameter(),
		logInterval:    cfg.LogInterval,
	}
}

// Position returns the current inertial position in meters.
func (s *State) Position() astromath.Vector3 { return s.position }

// Velocity returns the current inertial velocity in meters/second.
func (s *State) Velocity() astromath.Vector3 { return s.velocity }

// Iterations returns the number of completed integration steps.
func (s *State) Iterations() int { return s.iterations }

// Impact reports whether the surface has been reached. Once true it stays true.
func (s *State) Impact() bool { return s.impact }

// Elapsed returns the simulated time in seconds.
func (s *State) Elapsed() float64 { return float64(s.iterations) * s.dt }

// DeltaTime returns the fixed integration step.
func (s *State) DeltaTime() float64 { return s.dt }

// Radius returns the body radius.
func (s *State) Radius() float64 { return s.radius }

// RotationPeriod returns the body rotation period.
func (s *State) RotationPeriod() float64 { return s.rotationPeriod }

// G returns the gravitational parameter (surface gravity × radius²).
func (s *State) G() float64 { return s.g }

// LogInterval returns the target spacing between samples.
func (s *State) LogInterval() float64 { return s.logInterval }

// Log returns the recorded samples. The slice aliases the state's storage
// and must not be modified; it only ever grows.
func (s *State) Log() []Sample { return s.log[:len(s.log):len(s.log)] }

// LogLen returns the number of recorded samples.
func (s *State) LogLen() int { return len(s.log) }

// Height returns the current distance above the surface.
func (s *State) Height() float64 { return s.position.Magnitude() - s.radius }
