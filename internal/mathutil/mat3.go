package mathutil

import "image-morpher/internal/geom"

// Mat3 is a 3×3 matrix stored row-major: [r0c0, r0c1, r0c2, r1c0, ...].
// Value type for zero heap allocation. Affine maps keep the last row at
// [0, 0, 1] and act on homogeneous (x, y, 1) column vectors.
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mat3Translate returns the affine map p -> p + (dx, dy).
func Mat3Translate(dx, dy float64) Mat3 {
	return Mat3{1, 0, dx, 0, 1, dy, 0, 0, 1}
}

// Mat3Mul returns a × b.
func Mat3Mul(a, b Mat3) Mat3 {
	var m Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = a[r*3+0]*b[0*3+c] + a[r*3+1]*b[1*3+c] + a[r*3+2]*b[2*3+c]
		}
	}
	return m
}

// Apply maps p through m, dividing by the homogeneous coordinate when m is
// not affine.
func (m Mat3) Apply(p geom.Point) geom.Point {
	x := m[0]*p.X + m[1]*p.Y + m[2]
	y := m[3]*p.X + m[4]*p.Y + m[5]
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w != 1 && w != 0 {
		x /= w
		y /= w
	}
	return geom.Point{X: x, Y: y}
}

func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns m⁻¹. ok is false when m is singular.
func (m Mat3) Inverse() (inv Mat3, ok bool) {
	d := m.Det()
	if d == 0 {
		return Mat3{}, false
	}
	invD := 1.0 / d
	return Mat3{
		(m[4]*m[8] - m[5]*m[7]) * invD,
		(m[2]*m[7] - m[1]*m[8]) * invD,
		(m[1]*m[5] - m[2]*m[4]) * invD,
		(m[5]*m[6] - m[3]*m[8]) * invD,
		(m[0]*m[8] - m[2]*m[6]) * invD,
		(m[2]*m[3] - m[0]*m[5]) * invD,
		(m[3]*m[7] - m[4]*m[6]) * invD,
		(m[1]*m[6] - m[0]*m[7]) * invD,
		(m[0]*m[4] - m[1]*m[3]) * invD,
	}, true
}

// IsAffine reports whether the bottom row is [0, 0, 1].
func (m Mat3) IsAffine() bool {
	return m[6] == 0 && m[7] == 0 && m[8] == 1
}
