package ballistic

import (
	"encoding/json"
	"math"
)

const rad2deg = 180 / math.Pi

// Info is the caller-facing summary of a state.
type Info struct {
	Impact     bool    `json:"impact"`
	Time       float64 `json:"time"`      // seconds
	Latitude   float64 `json:"latitude"`  // degrees, body-fixed
	Longitude  float64 `json:"longitude"` // degrees, body-fixed
	Height     float64 `json:"height"`    // meters above surface
	Iterations int     `json:"iterationCount"`
}

// Report summarizes s. The position is rotated back into the body-fixed frame
// before converting to latitude and longitude.
func Report(s *State) Info {
	elapsed := s.Elapsed()
	lat, lon := Coordinates(ToBodyFixed(s.position, elapsed, s.rotationPeriod))

	return Info{
		Impact:     s.impact,
		Time:       elapsed,
		Latitude:   lat * rad2deg,
		Longitude:  lon * rad2deg,
		Height:     s.Height(),
		Iterations: s.iterations,
	}
}

// JSON renders the summary as indented JSON.
func (i Info) JSON() ([]byte, error) {
	return json.MarshalIndent(i, "", "  ")
}

// SpecificEnergy returns |v|²/2 − G/|r| for the current state. It is conserved
// by the exact dynamics, so its drift measures integration error.
func SpecificEnergy(s *State) float64 {
	return s.velocity.Dot(s.velocity)/2 - s.g/s.position.Magnitude()
}

// SpecificAngularMomentum returns r × v for the current state.
func SpecificAngularMomentum(s *State) float64 {
	return s.position.Cross(s.velocity).Magnitude()
}
