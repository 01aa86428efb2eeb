package patch

import (
	"github.com/staticagent/psychopath/bbox"
	"github.com/staticagent/psychopath/vmath"
)

// BilinearNet is a 4-point bilinear control net arranged
//
//	u-->
//	v0----v1
//	 |     |
//	v2----v3
//
// (v here is the down-arrow axis).
type BilinearNet [4]vmath.Vec3

var _ Net = BilinearNet{}

func (p BilinearNet) Bound() bbox.BBox {
	return boundOf(p[:])
}

func (p BilinearNet) ULength() float32 {
	return longestAxisLen(p[0].Sub(p[1]))
}

func (p BilinearNet) VLength() float32 {
	return longestAxisLen(p[0].Sub(p[2]))
}

// SplitU bisects the net along u, returning the [u_min, mid] and
// [mid, u_max] halves.
func (p BilinearNet) SplitU() (left, right Net) {
	mid01 := lerpVec(p[0], p[1], 0.5)
	mid23 := lerpVec(p[2], p[3], 0.5)
	l := BilinearNet{p[0], mid01, p[2], mid23}
	r := BilinearNet{mid01, p[1], mid23, p[3]}
	return l, r
}

// SplitV bisects the net along v, returning the [v_min, mid] ("top") and
// [mid, v_max] ("bottom") halves.
func (p BilinearNet) SplitV() (top, bottom Net) {
	mid02 := lerpVec(p[0], p[2], 0.5)
	mid13 := lerpVec(p[1], p[3], 0.5)
	t := BilinearNet{p[0], p[1], mid02, mid13}
	b := BilinearNet{mid02, mid13, p[2], p[3]}
	return t, b
}

func (p BilinearNet) DifferentialGeometry(u, v float32) DiffGeom {
	dpdu := p[0].Sub(p[1]).Mul(v).Sub(p[2].Mul(v)).Add(p[2]).Add(p[3].Mul(v - 1.0))
	dpdv := p[0].Sub(p[2]).Mul(u).Sub(p[1].Mul(u)).Add(p[1]).Add(p[3].Mul(u - 1.0))
	n := dpdv.Cross(dpdu).Normalize()

	// Second derivatives: d2p/du2 = d2p/dv2 = 0 for a bilinear patch; the
	// only nonzero one is the twist term d2p/dudv.
	d2pduv := p[0].Sub(p[1]).Sub(p[2]).Add(p[3])
	f := n.Dot(d2pduv)

	dndu, dndv := normalDerivatives(dpdu, dpdv, n, 0, f, 0)

	return DiffGeom{N: n, Dpdu: dpdu, Dpdv: dpdv, Dndu: dndu, Dndv: dndv}
}

// InterpolateBilinear linearly blends two same-topology control nets, used to
// obtain the net at an arbitrary time between two time samples.
func InterpolateBilinear(a, b BilinearNet, alpha float32) BilinearNet {
	var out BilinearNet
	for i := range a {
		out[i] = lerpVec(a[i], b[i], alpha)
	}
	return out
}
