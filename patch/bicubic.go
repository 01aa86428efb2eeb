package patch

import (
	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/vmath"
)

// BicubicNet is a 16-point bicubic Bézier control net, laid out row-major:
//
//	u-->
//	v0----v1----v2----v3
//	 |     |     |     |
//	v4----v5----v6----v7
//	 |     |     |     |
//	v8----v9----v10---v11
//	 |     |     |     |
//	v12---v13---v14---v15
type BicubicNet [16]vmath.Vec3

var _ Net = BicubicNet{}

func (p BicubicNet) Bound() bbox.BBox {
	return boundOf(p[:])
}

func (p BicubicNet) ULength() float32 {
	return longestAxisLen(p[0].Sub(p[3]))
}

func (p BicubicNet) VLength() float32 {
	return longestAxisLen(p[0].Sub(p[12]))
}

// deCasteljauHalf subdivides one cubic Bézier row/column [a, b, c, d] at its
// midpoint into two cubic segments sharing the interpolated endpoint,
// returning the left half's 4 points, the right half's 4 points.
func deCasteljauHalf(a, b, c, d vmath.Vec3) (left, right [4]vmath.Vec3) {
	ab := lerpVec(a, b, 0.5)
	bc := lerpVec(b, c, 0.5)
	cd := lerpVec(c, d, 0.5)
	abc := lerpVec(ab, bc, 0.5)
	bcd := lerpVec(bc, cd, 0.5)
	abcd := lerpVec(abc, bcd, 0.5)
	return [4]vmath.Vec3{a, ab, abc, abcd}, [4]vmath.Vec3{abcd, bcd, cd, d}
}

// SplitU bisects every row of the control net along u.
func (p BicubicNet) SplitU() (left, right Net) {
	var l, r BicubicNet
	for row := 0; row < 4; row++ {
		rr := row * 4
		lh, rh := deCasteljauHalf(p[rr], p[rr+1], p[rr+2], p[rr+3])
		l[rr], l[rr+1], l[rr+2], l[rr+3] = lh[0], lh[1], lh[2], lh[3]
		r[rr], r[rr+1], r[rr+2], r[rr+3] = rh[0], rh[1], rh[2], rh[3]
	}
	return l, r
}

// SplitV bisects every column of the control net along v, returning the
// [v_min, mid] ("top") and [mid, v_max] ("bottom") halves.
func (p BicubicNet) SplitV() (top, bottom Net) {
	var t, b BicubicNet
	for col := 0; col < 4; col++ {
		th, bh := deCasteljauHalf(p[col], p[col+4], p[col+8], p[col+12])
		t[col], t[col+4], t[col+8], t[col+12] = th[0], th[1], th[2], th[3]
		b[col], b[col+4], b[col+8], b[col+12] = bh[0], bh[1], bh[2], bh[3]
	}
	return t, b
}

func bernstein(u float32) (b0, b1, b2, b3 float32) {
	iu := 1.0 - u
	return iu * iu * iu, 3 * u * iu * iu, 3 * u * u * iu, u * u * u
}

func bernsteinD(u float32) (d0, d1, d2, d3 float32) {
	iu := 1.0 - u
	return -3 * iu * iu, (3 * iu * iu) - (6 * iu * u), (6 * iu * u) - (3 * u * u), 3 * u * u
}

func bernsteinDD(u float32) (dd0, dd1, dd2, dd3 float32) {
	iu := 1.0 - u
	return 6 * iu, (6 * u) - (12 * iu), (6 * iu) - (12 * u), 6 * u
}

func evalCubic(u float32, p0, p1, p2, p3 vmath.Vec3) vmath.Vec3 {
	b0, b1, b2, b3 := bernstein(u)
	return p0.Mul(b0).Add(p1.Mul(b1)).Add(p2.Mul(b2)).Add(p3.Mul(b3))
}

func evalCubicD(u float32, p0, p1, p2, p3 vmath.Vec3) vmath.Vec3 {
	d0, d1, d2, d3 := bernsteinD(u)
	return p0.Mul(d0).Add(p1.Mul(d1)).Add(p2.Mul(d2)).Add(p3.Mul(d3))
}

func evalCubicDD(u float32, p0, p1, p2, p3 vmath.Vec3) vmath.Vec3 {
	dd0, dd1, dd2, dd3 := bernsteinDD(u)
	return p0.Mul(dd0).Add(p1.Mul(dd1)).Add(p2.Mul(dd2)).Add(p3.Mul(dd3))
}

func (p BicubicNet) DifferentialGeometry(u, v float32) DiffGeom {
	var pu, pv, pdv [4]vmath.Vec3
	for i := 0; i < 4; i++ {
		pu[i] = evalCubic(v, p[i], p[i+4], p[i+8], p[i+12])
		pv[i] = evalCubic(u, p[i*4], p[i*4+1], p[i*4+2], p[i*4+3])
		pdv[i] = evalCubicD(u, p[i*4], p[i*4+1], p[i*4+2], p[i*4+3])
	}

	dpdu := evalCubicD(u, pu[0], pu[1], pu[2], pu[3])
	dpdv := evalCubicD(v, pv[0], pv[1], pv[2], pv[3])
	n := dpdv.Cross(dpdu).Normalize()

	d2pduu := evalCubicDD(u, pu[0], pu[1], pu[2], pu[3])
	d2pduv := evalCubicD(v, pdv[0], pdv[1], pdv[2], pdv[3])
	d2pdvv := evalCubicDD(v, pv[0], pv[1], pv[2], pv[3])

	e := n.Dot(d2pduu)
	f := n.Dot(d2pduv)
	g := n.Dot(d2pdvv)

	dndu, dndv := normalDerivatives(dpdu, dpdv, n, e, f, g)

	return DiffGeom{N: n, Dpdu: dpdu, Dpdv: dpdv, Dndu: dndu, Dndv: dndv}
}

// InterpolateBicubic linearly blends two same-topology control nets.
func InterpolateBicubic(a, b BicubicNet, alpha float32) BicubicNet {
	var out BicubicNet
	for i := range a {
		out[i] = lerpVec(a[i], b[i], alpha)
	}
	return out
}
