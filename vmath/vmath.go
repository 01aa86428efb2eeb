// Package vmath provides the small math containers the core acceleration
// structures are built on: points/vectors, 4x4 matrices, and the
// time-sampled affine transform used to stack instance transforms.
//
// Built on github.com/go-gl/mathgl/mgl32 for the underlying vector/matrix
// arithmetic.
package vmath

import "github.com/go-gl/mathgl/mgl32"

// Vec3 is a point or direction in 3-space.
type Vec3 = mgl32.Vec3

// Vec2 is a 2-component parametric or UV coordinate.
type Vec2 = mgl32.Vec2

// Matrix44 is a 4x4 affine transform matrix, column-major per mgl32 convention.
type Matrix44 struct {
	M mgl32.Mat4
}

// Identity returns the identity transform matrix.
func Identity() Matrix44 {
	return Matrix44{M: mgl32.Ident4()}
}

// NewMatrix44 wraps a raw mgl32 matrix.
func NewMatrix44(m mgl32.Mat4) Matrix44 {
	return Matrix44{M: m}
}

// Mul composes two matrices: (m * other) applied as m(other(x)).
func (m Matrix44) Mul(other Matrix44) Matrix44 {
	return Matrix44{M: m.M.Mul4(other.M)}
}

// Inverse returns the matrix inverse. Singular matrices return the zero matrix;
// callers in this codebase only ever invert well-formed affine transforms.
func (m Matrix44) Inverse() Matrix44 {
	return Matrix44{M: m.M.Inv()}
}

// Transpose returns the matrix transpose.
func (m Matrix44) Transpose() Matrix44 {
	return Matrix44{M: m.M.Transpose()}
}

// TransformPoint applies the full affine transform to a point.
func (m Matrix44) TransformPoint(p Vec3) Vec3 {
	v4 := m.M.Mul4x1(p.Vec4(1))
	return v4.Vec3()
}

// TransformDirection applies only the linear part of the transform (no
// translation) to a direction vector.
func (m Matrix44) TransformDirection(d Vec3) Vec3 {
	v4 := m.M.Mul4x1(d.Vec4(0))
	return v4.Vec3()
}

// TransformNormal transforms a surface normal by the inverse-transpose of
// the linear part, which is the correct transform for normals under
// non-uniform scale.
func (m Matrix44) TransformNormal(n Vec3) Vec3 {
	itM := m.M.Inv().Transpose()
	v4 := itM.Mul4x1(n.Vec4(0))
	return v4.Vec3()
}

// Lerp linearly interpolates between two matrices component-wise. This is
// an approximation (it does not decompose into translation/rotation/scale),
// consistent with how control points and bounding boxes are interpolated
// elsewhere in this codebase, and adequate for the small per-frame deltas
// transform motion blur represents.
func Lerp(a, b Matrix44, alpha float32) Matrix44 {
	var out mgl32.Mat4
	for i := 0; i < 16; i++ {
		out[i] = a.M[i] + (b.M[i]-a.M[i])*alpha
	}
	return Matrix44{M: out}
}

// Transform is a named affine transform; it is the element type stored in
// TimeSampled sequences describing a moving instance.
type Transform = Matrix44

// Lerp3 linearly interpolates two points.
func Lerp3(a, b Vec3, alpha float32) Vec3 {
	return a.Add(b.Sub(a).Mul(alpha))
}
