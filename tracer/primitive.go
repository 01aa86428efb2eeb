package tracer

import (
	"math"

	"github.com/staticagent/psychopath/patch"
	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/tsample"
	"github.com/staticagent/psychopath/vmath"
)

// intersectSphereStream dispatches a contiguous ray range against a single
// time-sampled sphere, analogous in shape to patch.IntersectStream but
// without any splitting recursion: a sphere's closed-form quadratic makes
// dicing unnecessary. It walks the ray range directly rather than the
// stream/partition shape patch dispatch uses, since there is no subdivision
// stack to maintain.
func intersectSphereStream(
	radius tsample.TimeSampled[float32],
	rays []raystream.Ray,
	lo, hi int,
	intersections []raystream.Intersection,
	space patch.SpaceAt,
	elementID raystream.ElementID,
	shaderName string,
	emission vmath.Vec3,
	isLight bool,
) {
	for i := lo; i < hi; i++ {
		ray := &rays[i]
		if ray.IsDone() {
			continue
		}

		r := radius.Sample(ray.Time, lerpFloat32)
		if r <= 0 {
			continue
		}

		oc := ray.Origin
		a := ray.Dir.Dot(ray.Dir)
		b := 2 * oc.Dot(ray.Dir)
		c := oc.Dot(oc) - r*r
		disc := b*b - 4*a*c
		if disc < 0 {
			continue
		}
		sq := float32(math.Sqrt(float64(disc)))
		t0 := (-b - sq) / (2 * a)
		t1 := (-b + sq) / (2 * a)
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		t := t0
		if t <= 0 {
			t = t1
		}
		if t <= 0 || t >= ray.MaxT {
			continue
		}

		inter := &intersections[ray.ID()]
		inter.Hit = true
		inter.ElementID = elementID
		inter.ShaderName = shaderName

		if ray.IsOcclusion() {
			ray.SetDone(true)
			continue
		}

		ray.MaxT = t

		p := ray.Origin.Add(ray.Dir.Mul(t))
		n := p.Normalize()

		inter.T = t
		if space != nil {
			inter.Space = space(ray.Time)
		} else {
			inter.Space = vmath.Identity()
		}
		inter.P = p
		inter.N = n
		inter.U, inter.V = sphereUV(n)
		inter.Dpdu, inter.Dpdv = sphereTangents(n)
		inter.Backfacing = n.Dot(ray.Dir.Normalize()) > 0
		inter.Offset = n.Mul(r * 1e-4)

		if isLight {
			inter.Closure = raystream.Closure{Kind: raystream.ClosureEmit, Color: emission}
		}
	}
}

// sphereUV maps a unit-sphere surface normal to spherical (u, v) in [0,1]^2.
func sphereUV(n vmath.Vec3) (u, v float32) {
	phi := float32(math.Atan2(float64(n[1]), float64(n[0])))
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := float32(math.Acos(float64(clampf(n[2], -1, 1))))
	return phi / (2 * math.Pi), theta / math.Pi
}

// sphereTangents derives an orthonormal dpdu/dpdv pair from the sphere
// normal, sufficient for the shader-facing tangent frame without a
// dedicated analytic parametrization derivative (full shading-model detail
// is out of scope beyond the closure interface shape).
func sphereTangents(n vmath.Vec3) (dpdu, dpdv vmath.Vec3) {
	up := vmath.Vec3{0, 0, 1}
	if absf32(n[2]) > 0.999 {
		up = vmath.Vec3{1, 0, 0}
	}
	dpdu = up.Cross(n).Normalize()
	dpdv = n.Cross(dpdu)
	return dpdu, dpdv
}

// intersectRectangleStream dispatches a ray range against an axis-aligned
// rectangle lying in the local XY plane (z = 0), the RectangleLight
// geometry. This is the same flat-quad case a degenerate bilinear patch
// covers, specialized to an analytic plane intersection since a rectangle
// light needs no dicing.
func intersectRectangleStream(
	halfExtents vmath.Vec2,
	rays []raystream.Ray,
	lo, hi int,
	intersections []raystream.Intersection,
	space patch.SpaceAt,
	elementID raystream.ElementID,
	shaderName string,
	emission vmath.Vec3,
) {
	for i := lo; i < hi; i++ {
		ray := &rays[i]
		if ray.IsDone() {
			continue
		}
		if absf32(ray.Dir[2]) < 1e-9 {
			continue
		}

		t := -ray.Origin[2] / ray.Dir[2]
		if t <= 0 || t >= ray.MaxT {
			continue
		}

		px := ray.Origin[0] + ray.Dir[0]*t
		py := ray.Origin[1] + ray.Dir[1]*t
		if absf32(px) > halfExtents[0] || absf32(py) > halfExtents[1] {
			continue
		}

		inter := &intersections[ray.ID()]
		inter.Hit = true
		inter.ElementID = elementID
		inter.ShaderName = shaderName

		if ray.IsOcclusion() {
			ray.SetDone(true)
			continue
		}

		ray.MaxT = t

		n := vmath.Vec3{0, 0, 1}
		inter.T = t
		if space != nil {
			inter.Space = space(ray.Time)
		} else {
			inter.Space = vmath.Identity()
		}
		inter.P = vmath.Vec3{px, py, 0}
		inter.U = (px + halfExtents[0]) / (2 * halfExtents[0])
		inter.V = (py + halfExtents[1]) / (2 * halfExtents[1])
		inter.N = n
		inter.Dpdu = vmath.Vec3{1, 0, 0}
		inter.Dpdv = vmath.Vec3{0, 1, 0}
		inter.Backfacing = n.Dot(ray.Dir.Normalize()) > 0
		inter.Offset = n.Mul(1e-4)
		inter.Closure = raystream.Closure{Kind: raystream.ClosureEmit, Color: emission}
	}
}

func lerpFloat32(a, b, alpha float32) float32 { return a + (b-a)*alpha }

func absf32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
