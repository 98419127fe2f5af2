// Package vec provides the small float vector types used by the motion
// pipeline: Vec3 for spatial coordinates and Vec4 for cartesian
// position/velocity including the extrusion axis.
package vec

import "math"

// Vec3 is a 3-component float vector (x, y, z).
type Vec3 [3]float64

// Vec4 is a 4-component float vector (x, y, z, e).
type Vec4 [4]float64

// X returns the first component.
func (v Vec3) X() float64 { return v[0] }

// Y returns the second component.
func (v Vec3) Y() float64 { return v[1] }

// Z returns the third component.
func (v Vec3) Z() float64 { return v[2] }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Mag returns the euclidean length of v.
func (v Vec3) Mag() float64 {
	return math.Sqrt(v.Dot(v))
}

// Norm returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Norm() Vec3 {
	m := v.Mag()
	if m == 0 {
		return v
	}
	return v.Scale(1 / m)
}

// X returns the first component.
func (v Vec4) X() float64 { return v[0] }

// Y returns the second component.
func (v Vec4) Y() float64 { return v[1] }

// Z returns the third component.
func (v Vec4) Z() float64 { return v[2] }

// E returns the extrusion component.
func (v Vec4) E() float64 { return v[3] }

// XYZ drops the extrusion component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Add returns v + o.
func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]}
}

// Sub returns v - o.
func (v Vec4) Sub(o Vec4) Vec4 {
	return Vec4{v[0] - o[0], v[1] - o[1], v[2] - o[2], v[3] - o[3]}
}

// Scale returns v scaled by s.
func (v Vec4) Scale(s float64) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Mag returns the euclidean length of v.
func (v Vec4) Mag() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2] + v[3]*v[3])
}
