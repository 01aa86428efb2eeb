// Package patch implements the splitting-plane patch primitives: bilinear
// and bicubic-Bézier control nets, recursive de Casteljau-style split/dice,
// and the differential-geometry evaluator a hit needs for shading.
package patch

import (
	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

// DiffGeom is the differential geometry at a parametric (u, v) location: the
// surface normal, its partial derivatives, and the surface tangents.
type DiffGeom struct {
	N, Dpdu, Dpdv, Dndu, Dndv vmath.Vec3
}

// Net is a patch control net at one instant in time. Bilinear and Bicubic
// are the only two implementations; the set of patch kinds is closed, so an
// interface of six small methods (rather than open-ended dynamic
// dispatch across many kinds) is the right shape here.
type Net interface {
	Bound() bbox.BBox
	ULength() float32
	VLength() float32
	SplitU() (left, right Net)
	SplitV() (top, bottom Net)
	DifferentialGeometry(u, v float32) DiffGeom
}

// normalDerivatives computes dn/du and dn/dv from the first and second
// fundamental form coefficients, shared by both patch kinds' differential
// geometry rather than duplicated in each.
func normalDerivatives(dpdu, dpdv, n vmath.Vec3, e, f, g float32) (dndu, dndv vmath.Vec3) {
	E := dpdu.Dot(dpdu)
	F := dpdu.Dot(dpdv)
	G := dpdv.Dot(dpdv)

	invEGF2 := 1.0 / (E*G - F*F)

	dndu = dpdu.Mul((f*F - e*G) * invEGF2).Add(dpdv.Mul((e*F - f*E) * invEGF2))
	dndv = dpdu.Mul((g*F - f*G) * invEGF2).Add(dpdv.Mul((f*F - g*E) * invEGF2))
	return dndu, dndv
}

func boundOf(pts []vmath.Vec3) bbox.BBox {
	b := bbox.BBox{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.MergePoint(p)
	}
	return b
}

func longestAxisLen(v vmath.Vec3) float32 {
	x, y, z := absf(v[0]), absf(v[1]), absf(v[2])
	m := x
	if y > m {
		m = y
	}
	if z > m {
		m = z
	}
	return m
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func lerpVec(a, b vmath.Vec3, alpha float32) vmath.Vec3 {
	return vmath.Lerp3(a, b, alpha)
}

// InterpolateNet blends two control nets of the same concrete kind. The set
// of kinds is closed (see Net's doc comment), so a type switch is the
// correct dispatch here rather than adding an Interpolate method to the
// interface purely to serve tsample.TimeSampled[Net].Sample.
func InterpolateNet(a, b Net, alpha float32) Net {
	switch av := a.(type) {
	case BilinearNet:
		return InterpolateBilinear(av, b.(BilinearNet), alpha)
	case BicubicNet:
		return InterpolateBicubic(av, b.(BicubicNet), alpha)
	default:
		panic("patch: unknown Net kind in InterpolateNet")
	}
}

// BoundWithTolerance computes a net's bound at each time sample and inflates each
// by cfg.DisplacementTolerance, the displacement-bound-padding hook a patch
// with a displacement shader needs before its bound is handed to the BVH
// builder.
func BoundWithTolerance(samples tsample.TimeSampled[Net], cfg Config) tsample.TimeSampled[bbox.BBox] {
	out := make([]bbox.BBox, samples.Count())
	for i := range out {
		out[i] = samples.At(i).Bound().Inflate(cfg.DisplacementTolerance)
	}
	return tsample.NewMotion(out)
}
