package orbital

import (
	"math"

	astromath "github.com/oxygene76/ballistics-client/pkg/astronomy/math"
)

// Elements is the osculating two-body orbit of a projectile at one instant.
// Distances are meters from the body center, angles radians.
type Elements struct {
	SemiMajorAxis     float64 `json:"semi_major_axis"` // a, negative for hyperbolic
	Eccentricity      float64 `json:"eccentricity"`
	Inclination       float64 `json:"inclination"`        // angle between orbit plane and equator
	ArgumentPeriapsis float64 `json:"argument_periapsis"` // ω, measured in the orbit plane from the ascending node
	TrueAnomaly       float64 `json:"true_anomaly"`       // ν
	Periapsis         float64 `json:"periapsis"`          // radius
	Apoapsis          float64 `json:"apoapsis"`           // radius, zero when unbound
	Period            float64 `json:"period"`             // seconds, zero when unbound
}

// polar is the body's rotation axis.
var polar = astromath.Vector3{Y: 1}

// FromStateVector converts an inertial position and velocity to orbital
// elements. mu is the gravitational parameter in m³/s². Without gravity or
// at the center there is no orbit and the zero Elements is returned.
func FromStateVector(pos, vel astromath.Vector3, mu float64) Elements {
	h := pos.Cross(vel)
	r := pos.Magnitude()
	v := vel.Magnitude()
	if !(mu > 0) || r == 0 {
		return Elements{}
	}

	// Eccentricity vector points at periapsis.
	eVec := vel.Cross(h).Scale(1.0 / mu).Sub(pos.Scale(1.0 / r))
	e := eVec.Magnitude()

	energy := v*v/2 - mu/r
	a := -mu / (2 * energy)

	el := Elements{
		SemiMajorAxis: a,
		Eccentricity:  e,
	}

	hMag := h.Magnitude()
	if hMag > 0 {
		el.Inclination = math.Acos(clamp(h.Dot(polar) / hMag))
	}

	// Semi-latus rectum gives periapsis for every conic, including the
	// degenerate radial case where it is zero.
	p := hMag * hMag / mu
	el.Periapsis = p / (1 + e)

	// Periapsis and apoapsis sum to the major axis.
	if a > 0 {
		el.Apoapsis = 2*a - el.Periapsis
		el.Period = 2 * math.Pi * math.Sqrt(a*a*a/mu)
	}

	// The node line lies in the equatorial plane.
	n := polar.Cross(h)
	if n.Magnitude() > 1e-10 && e > 1e-10 {
		el.ArgumentPeriapsis = math.Acos(clamp(n.Dot(eVec) / (n.Magnitude() * e)))
		if eVec.Dot(polar) < 0 {
			el.ArgumentPeriapsis = 2*math.Pi - el.ArgumentPeriapsis
		}
	}
	if e > 1e-10 {
		el.TrueAnomaly = math.Acos(clamp(eVec.Dot(pos) / (e * r)))
		if pos.Dot(vel) < 0 {
			el.TrueAnomaly = 2*math.Pi - el.TrueAnomaly
		}
	}

	return el
}

// Bound reports whether the orbit is closed (negative specific energy).
func (el Elements) Bound() bool {
	return el.SemiMajorAxis > 0
}

// Suborbital reports whether the orbit intersects a sphere of the given
// radius, i.e. the projectile comes down without further thrust.
func (el Elements) Suborbital(radius float64) bool {
	return el.Periapsis <= radius
}

// ApexHeight is the highest point of the orbit above a sphere of the given
// radius. It is +Inf for unbound orbits.
func (el Elements) ApexHeight(radius float64) float64 {
	if !el.Bound() {
		return math.Inf(1)
	}
	return el.Apoapsis - radius
}

// CircularSpeed is the speed of a circular orbit at radius r.
func CircularSpeed(mu, r float64) float64 {
	return math.Sqrt(mu / r)
}

// EscapeSpeed is the minimum speed at radius r for an unbound orbit.
func EscapeSpeed(mu, r float64) float64 {
	return math.Sqrt(2 * mu / r)
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
