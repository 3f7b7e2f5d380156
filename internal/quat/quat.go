// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package quat provides the 3D vector and unit-quaternion helpers shared by the
// calibration pipeline. The quaternion representation is
// github.com/westphae/quaternion (W, X, Y, Z); this package adds the vector
// algebra and the handful of rotation operations the estimators need.
//
// World convention: Z up, X forward. Gravity measured by a level sensor points
// along -Z in the world frame.
package quat

import (
	"math"

	"github.com/westphae/quaternion"
)

// Quat is the quaternion type used throughout the module.
type Quat = quaternion.Quaternion

// Vec3 is a 3D vector (sensor frame or bone frame, per context).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Canonical world directions.
var (
	WorldUp      = Vec3{Z: 1}
	WorldForward = Vec3{X: 1}
)

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(k float64) Vec3 { return Vec3{k * v.X, k * v.Y, k * v.Z} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector along v and its original magnitude.
// A zero vector is returned unchanged with magnitude 0.
func (v Vec3) Normalize() (Vec3, float64) {
	n := v.Norm()
	if n == 0 {
		return v, 0
	}
	return v.Scale(1 / n), n
}

// AngleTo returns the angle between v and o in radians, treating both as
// directions (magnitudes are ignored). Zero vectors yield 0.
func (v Vec3) AngleTo(o Vec3) float64 {
	a, na := v.Normalize()
	b, nb := o.Normalize()
	if na == 0 || nb == 0 {
		return 0
	}
	d := a.Dot(b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d)
}

// Identity returns the identity rotation.
func Identity() Quat { return Quat{W: 1} }

// Mul returns the quaternion product a*b (apply b, then a, in the
// sensor-to-world convention used here).
func Mul(a, b Quat) Quat { return quaternion.Prod(a, b) }

// Inv returns the inverse of a unit quaternion (its conjugate).
func Inv(q Quat) Quat { return q.Conj() }

// Norm returns the Euclidean norm of q.
func Norm(q Quat) float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize rescales q to unit norm. The zero quaternion maps to identity.
func Normalize(q Quat) Quat {
	n := Norm(q)
	if n == 0 {
		return Identity()
	}
	return Quat{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// IsUnit reports whether q has unit norm within tol.
func IsUnit(q Quat, tol float64) bool {
	return math.Abs(Norm(q)-1) < tol
}

// FromAxisAngle builds the rotation of angle radians about axis.
func FromAxisAngle(axis Vec3, angle float64) Quat {
	u, n := axis.Normalize()
	if n == 0 {
		return Identity()
	}
	s := math.Sin(angle / 2)
	return Quat{W: math.Cos(angle / 2), X: u.X * s, Y: u.Y * s, Z: u.Z * s}
}

// Rotate applies the rotation q to v: q * (0,v) * q⁻¹.
func Rotate(q Quat, v Vec3) Vec3 {
	p := quaternion.Prod(q, Quat{X: v.X, Y: v.Y, Z: v.Z}, q.Conj())
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// Angle returns the rotation angle of q in radians, in [0, π].
func Angle(q Quat) float64 {
	w := math.Abs(q.W)
	if w > 1 {
		w = 1
	}
	return 2 * math.Acos(w)
}

// AngleBetween returns the angle of the relative rotation a⁻¹·b in radians.
func AngleBetween(a, b Quat) float64 {
	return Angle(Mul(Inv(a), b))
}

// TwistZ extracts the yaw-only (rotation about world Z) component of q via
// swing-twist decomposition. Degenerate inputs (rotation axis orthogonal to Z)
// return identity.
func TwistZ(q Quat) Quat {
	t := Quat{W: q.W, Z: q.Z}
	if Norm(t) < 1e-9 {
		return Identity()
	}
	return Normalize(t)
}

// Yaw returns the signed rotation of q about world Z in radians.
func Yaw(q Quat) float64 {
	t := TwistZ(q)
	return 2 * math.Atan2(t.Z, t.W)
}

// FromRotationMatrix converts a row-major 3x3 rotation matrix to a unit
// quaternion (Shepperd's method: branch on the largest diagonal term to keep
// the divisor well away from zero).
func FromRotationMatrix(m [3][3]float64) Quat {
	tr := m[0][0] + m[1][1] + m[2][2]
	var q Quat
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quat{
			W: s / 4,
			X: (m[2][1] - m[1][2]) / s,
			Y: (m[0][2] - m[2][0]) / s,
			Z: (m[1][0] - m[0][1]) / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		q = Quat{
			W: (m[2][1] - m[1][2]) / s,
			X: s / 4,
			Y: (m[0][1] + m[1][0]) / s,
			Z: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		q = Quat{
			W: (m[0][2] - m[2][0]) / s,
			X: (m[0][1] + m[1][0]) / s,
			Y: s / 4,
			Z: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		q = Quat{
			W: (m[1][0] - m[0][1]) / s,
			X: (m[0][2] + m[2][0]) / s,
			Y: (m[1][2] + m[2][1]) / s,
			Z: s / 4,
		}
	}
	return Normalize(q)
}

// ToRotationMatrix converts a unit quaternion to a row-major 3x3 rotation
// matrix.
func ToRotationMatrix(q Quat) [3][3]float64 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}
