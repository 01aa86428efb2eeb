package raystream

import "github.com/staticagent/psychopath/vmath"

// ClosureKind tags the surface-closure stored inline in an Intersection.
// The set of closure kinds is closed: a bounded-size union, not a
// heap-allocated interface, so shading never allocates per hit.
type ClosureKind uint8

const (
	ClosureNone ClosureKind = iota
	ClosureEmit
	ClosureLambert
	ClosureGTR
)

// Closure is a value-type surface closure: a kind tag plus up to four
// scalar parameters and a base color, stored inline in Intersection.
type Closure struct {
	Kind   ClosureKind
	Color  vmath.Vec3
	Params [4]float32
}
