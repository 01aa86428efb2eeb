package patch

import "testing"

// TestSplitOnUTieBreak covers the spec's explicit tie-break rule directly:
// "equal u/v lengths split on u." unitQuad-shaped fixtures in patch_test.go
// are exactly square, so IntersectStream never observably exercises this
// branch on its own (the AABB converges the same regardless of split
// order) — this test pins the decision itself.
func TestSplitOnUTieBreak(t *testing.T) {
	if !splitOnU(1, 1) {
		t.Fatal("equal u/v lengths must split on u")
	}
	if !splitOnU(2, 1) {
		t.Fatal("longer u must split on u")
	}
	if splitOnU(1, 2) {
		t.Fatal("longer v must split on v")
	}
}
