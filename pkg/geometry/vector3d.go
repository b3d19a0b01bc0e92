package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon Precision constant used for float64 comparisons.
const (
	Epsilon = 1e-9
)

// Vec3 is the 3D point/vector type used across the simulation.
// We alias mgl64.Vec3 so callers get Add/Sub/Mul/Dot/Len for free.
type Vec3 = mgl64.Vec3

// Zero is the origin.
var Zero = Vec3{0, 0, 0}

// NewSpherical creates a vector from spherical coordinates.
// phi is the azimuth in the XY plane, theta the angle from the +Z axis, both in radians.
// A negative radius mirrors the point through the origin.
func NewSpherical(radius, phi, theta float64) Vec3 {
	sinTheta := math.Sin(theta)
	v := Vec3{
		math.Cos(phi) * sinTheta * radius,
		math.Sin(phi) * sinTheta * radius,
		math.Cos(theta) * radius,
	}
	// Handle standard floating point precision issues near zero
	for i := range v {
		if math.Abs(v[i]) < Epsilon*math.Abs(radius) {
			v[i] = 0
		}
	}
	return v
}

// Phi returns the azimuth of the projection of v on the XY plane, in [0, 2*Pi).
// The projection of a vector lying on the Z axis has no direction; Phi returns 0 for it.
func Phi(v Vec3) float64 {
	r := math.Hypot(v[0], v[1])
	if r < Epsilon {
		return 0
	}
	a := math.Acos(v[0] / r)
	if v[1] < 0 {
		return 2*math.Pi - a
	}
	return a
}

// Normalize returns a unit vector in the same direction.
// Returns a zero vector if the length is effectively zero (mgl64 would return NaN).
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// DivScalar divides each component by s. Callers guard s != 0.
func DivScalar(v Vec3, s float64) Vec3 {
	return Vec3{v[0] / s, v[1] / s, v[2] / s}
}

// ClampLen rescales v to length maxLen when it is longer, keeping its direction.
// It works at any scale, unlike Normalize it has no Epsilon cutoff.
func ClampLen(v Vec3, maxLen float64) Vec3 {
	if l := v.Len(); l > maxLen {
		return v.Mul(maxLen / l)
	}
	return v
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func Eq(a, b Vec3) bool {
	return math.Abs(a[0]-b[0]) <= Epsilon && math.Abs(a[1]-b[1]) <= Epsilon && math.Abs(a[2]-b[2]) <= Epsilon
}

// IsFinite reports whether no component is NaN or Inf.
func IsFinite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Format renders v with full precision, space separated, for text dumps.
func Format(v Vec3) string {
	return fmt.Sprintf("%g %g %g", v[0], v[1], v[2])
}
