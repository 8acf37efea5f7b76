// Package geo is the 2D geometry kernel shared by every figure
// generator: vectors, bearings, the common ease curve, and the ellipse
// path primitive that all orbit figures sample.
//
// Bearings are radians with 0 pointing "up" the set (+y) and positive
// angles turning clockwise, so a bearing of π/2 points east (+x).
package geo

import "math"

// Vec is a 2D point or displacement. X runs across the set, Y runs up it.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z-component of v × o.
func (v Vec) Cross(o Vec) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Len returns the euclidean length of v.
func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Mid returns the midpoint of v and o.
func (v Vec) Mid(o Vec) Vec {
	return Vec{(v.X + o.X) / 2, (v.Y + o.Y) / 2}
}

// Heading converts a bearing to its unit vector.
func Heading(bearing float64) Vec {
	return Vec{math.Sin(bearing), math.Cos(bearing)}
}

// Bearing returns the bearing of v, normalized to [0, 2π).
func Bearing(v Vec) float64 {
	return NormalizeBearing(math.Atan2(v.X, v.Y))
}

// NormalizeBearing maps any angle into [0, 2π).
func NormalizeBearing(b float64) float64 {
	b = math.Mod(b, 2*math.Pi)
	if b < 0 {
		b += 2 * math.Pi
	}
	return b
}

// AngleDiff returns the shortest signed angle from a to b, in (-π, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// Ease is the shared ease-in/ease-out curve. Every interpolated figure
// runs its parameter through this so all motion accelerates and
// decelerates identically.
func Ease(t float64) float64 {
	return (1 - math.Cos(t*math.Pi)) / 2
}

// Lerp interpolates linearly from a to b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// RotateAbout rotates p around center by angle. Positive angles rotate
// clockwise, matching the bearing convention.
func RotateAbout(p, center Vec, angle float64) Vec {
	r := p.Sub(center)
	sin, cos := math.Sin(angle), math.Cos(angle)
	return center.Add(Vec{
		X: r.X*cos + r.Y*sin,
		Y: -r.X*sin + r.Y*cos,
	})
}

// EllipsePoint samples the ellipse whose major axis runs a→b at
// parametric angle phi: phi=0 lands on a, phi=π lands on b. minor is
// the signed minor-axis half-length; positive values travel clockwise
// around the a→b midpoint as phi grows, negative values travel
// counter-clockwise. With |minor| equal to half the a→b separation the
// path degenerates to the circular orbit used by allemandes.
func EllipsePoint(a, b Vec, minor, phi float64) Vec {
	center := a.Mid(b)
	axis := b.Sub(a)
	major := axis.Len() / 2
	if major == 0 {
		return center
	}
	u := axis.Scale(1 / axis.Len())
	// Counter-clockwise perpendicular of u; flipping the sign of minor
	// flips the travel direction.
	n := Vec{-u.Y, u.X}
	return center.
		Add(u.Scale(-major * math.Cos(phi))).
		Add(n.Scale(minor * math.Sin(phi)))
}
