package ballistic

import (
	"math"

	astromath "github.com/oxygene76/ballistics-client/pkg/astronomy/math"
)

// Frame conventions: Y is the polar axis, Z points at (lat 0, lon 0) and X
// points east of it. Local launch frames use X = east, Y = north, Z = up.

// LaunchPosition places a point of length radius+height on the Z axis and
// carries it to the given geographic coordinate.
func LaunchPosition(lat, lon, radius, height float64) astromath.Vector3 {
	pos := astromath.Vector3{Z: radius + height}
	return pos.RotateX(lat).RotateY(-lon)
}

// LaunchVelocity returns the launch velocity relative to the surface, in the
// inertial frame. The local direction starts pointing north, is tilted up by
// alt, turned by azm about the local vertical and then carried to the launch
// site by the same rotations as LaunchPosition.
func LaunchVelocity(lat, lon, azm, alt, speed float64) astromath.Vector3 {
	dir := astromath.Vector3{Y: 1}
	dir = dir.RotateX(-alt)
	dir = dir.RotateZ(azm)
	dir = dir.RotateX(lat)
	dir = dir.RotateY(-lon)
	return dir.Scale(speed)
}

// TangentialVelocity returns the eastward velocity of the launch site due to
// the body's own rotation.
func TangentialVelocity(lat, lon, radius, height, period float64) astromath.Vector3 {
	circ := 2 * math.Pi * (radius + height) * math.Cos(lat)
	return astromath.Vector3{X: circ / period}.RotateY(-lon)
}

// Coordinates converts a body-fixed position to geographic latitude and
// longitude in radians. Longitude is signed by the X component.
func Coordinates(pos astromath.Vector3) (lat, lon float64) {
	lat = math.Asin(pos.Y / pos.Magnitude())
	lon = math.Acos(pos.Z / math.Sqrt(pos.Z*pos.Z+pos.X*pos.X))
	if pos.X < 0 {
		lon = -lon
	}
	return lat, lon
}

// BodyRotation is the angle the body has turned through after elapsed seconds.
func BodyRotation(elapsed, period float64) float64 {
	return 2 * math.Pi * (elapsed / period)
}

// ToBodyFixed rotates an inertial position back by the body's rotation.
func ToBodyFixed(pos astromath.Vector3, elapsed, period float64) astromath.Vector3 {
	return pos.RotateY(BodyRotation(elapsed, period))
}
