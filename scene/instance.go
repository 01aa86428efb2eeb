package scene

// Instance places one Object into an Assembly's BVH, optionally moving it
// over the shutter via a range of time-sampled transforms. It names its
// object through a single ObjectIndex rather than a type tag plus two
// separate index spaces, since Object's AssemblyRef variant (see
// object.go) already folds object-vs-assembly instancing into one kind.
type Instance struct {
	ObjectIndex int32

	// TransformIndex/TransformCount select a contiguous run of
	// Assembly.Transforms. TransformCount == 0 means the identity
	// transform (no motion, no offset).
	TransformIndex int32
	TransformCount int32

	// ShaderName resolves, at Finalize, against the owning Assembly's
	// registered shader-name table (Assembly.RegisterShaderName). Empty
	// means the instance names no shader of its own; the integrator picks
	// whatever default it wants for that case. A non-empty name that the
	// owning Assembly never registered is a dangling shader reference,
	// reported as ErrDanglingShader at Finalize.
	ShaderName string
}
