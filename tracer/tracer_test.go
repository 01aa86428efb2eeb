package tracer_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticagent/psychopath/raystream"
	"github.com/staticagent/psychopath/scene"
	"github.com/staticagent/psychopath/tracer"
	"github.com/staticagent/psychopath/vmath"
)

func translate(v vmath.Vec3) vmath.Matrix44 {
	return vmath.NewMatrix44(mgl32.Translate3D(v[0], v[1], v[2]))
}

func buildSphereScene(t *testing.T, radius float32, center vmath.Vec3) *scene.Assembly {
	t.Helper()
	a := scene.NewAssembly()
	obj := a.AddObject(scene.NewSphere(radius))
	var xforms []vmath.Matrix44
	if center != (vmath.Vec3{}) {
		xforms = []vmath.Matrix44{translate(center)}
	}
	_, err := a.InstanceObject(obj, xforms)
	require.NoError(t, err)
	require.NoError(t, a.Finalize())
	return a
}

func TestTraceHitsSphereAlongAxis(t *testing.T) {
	a := buildSphereScene(t, 1, vmath.Vec3{0, 0, 0})

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	hits := make([]raystream.Intersection, 1)

	tr := tracer.New(nil)
	tr.Trace(a, rays, hits)

	require.True(t, hits[0].Hit)
	assert.InDelta(t, 9, hits[0].T, 1e-3)
	assert.InDelta(t, 1, hits[0].N.Len(), 1e-3)
}

func TestTraceMissesSphereOffAxis(t *testing.T) {
	a := buildSphereScene(t, 1, vmath.Vec3{0, 0, 0})

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{10, 10, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	hits := make([]raystream.Intersection, 1)

	tracer.New(nil).Trace(a, rays, hits)

	assert.False(t, hits[0].Hit)
}

func TestTraceRespectsInstanceTranslation(t *testing.T) {
	a := buildSphereScene(t, 1, vmath.Vec3{5, 0, 0})

	miss := raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)
	hit := raystream.NewRay(vmath.Vec3{5, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 1)

	rays := []raystream.Ray{miss, hit}
	hits := make([]raystream.Intersection, 2)

	tracer.New(nil).Trace(a, rays, hits)

	assert.False(t, hits[0].Hit)
	require.True(t, hits[1].Hit)
}

func TestTraceOcclusionRayStopsAtFirstHit(t *testing.T) {
	a := buildSphereScene(t, 1, vmath.Vec3{0, 0, 0})

	ray := raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)
	ray.SetOcclusion(true)
	rays := []raystream.Ray{ray}
	hits := make([]raystream.Intersection, 1)

	tracer.New(nil).Trace(a, rays, hits)

	assert.True(t, hits[0].Hit)
	assert.True(t, rays[0].IsDone())
}

func TestTraceDegenerateRayNeverDispatches(t *testing.T) {
	a := buildSphereScene(t, 1, vmath.Vec3{0, 0, 0})

	stats := tracer.NewStats()
	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 0}, 0, 1000, 0)}
	hits := make([]raystream.Intersection, 1)

	tracer.New(stats).Trace(a, rays, hits)

	assert.False(t, hits[0].Hit)
	assert.True(t, rays[0].IsDone())
	assert.Equal(t, int64(1), stats.Snapshot().Degenerate)
}

func TestTraceRecursesThroughNestedAssembly(t *testing.T) {
	inner := scene.NewAssembly()
	sphereObj := inner.AddObject(scene.NewSphere(1))
	_, err := inner.InstanceObject(sphereObj, nil)
	require.NoError(t, err)
	require.NoError(t, inner.Finalize())

	outer := scene.NewAssembly()
	outer.InstanceAssembly(inner, []vmath.Matrix44{translate(vmath.Vec3{0, 0, 20})})
	require.NoError(t, outer.Finalize())

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	hits := make([]raystream.Intersection, 1)

	tracer.New(nil).Trace(outer, rays, hits)

	require.True(t, hits[0].Hit)
	assert.InDelta(t, 29, hits[0].T, 1e-3)
}

func TestTraceResolvesInstanceShaderName(t *testing.T) {
	a := scene.NewAssembly()
	a.RegisterShaderName("chrome")
	obj := a.AddObject(scene.NewSphere(1))
	instIdx, err := a.InstanceObject(obj, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetInstanceShader(instIdx, "chrome"))
	require.NoError(t, a.Finalize())

	rays := []raystream.Ray{raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0)}
	hits := make([]raystream.Intersection, 1)

	tracer.New(nil).Trace(a, rays, hits)

	require.True(t, hits[0].Hit)
	assert.Equal(t, "chrome", hits[0].ShaderName)
}

func TestTraceReportsStats(t *testing.T) {
	a := buildSphereScene(t, 1, vmath.Vec3{0, 0, 0})
	stats := tracer.NewStats()

	rays := []raystream.Ray{
		raystream.NewRay(vmath.Vec3{0, 0, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 0),
		raystream.NewRay(vmath.Vec3{100, 100, -10}, vmath.Vec3{0, 0, 1}, 0, 1000, 1),
	}
	hits := make([]raystream.Intersection, 2)

	tracer.New(stats).Trace(a, rays, hits)

	snap := stats.Snapshot()
	assert.Equal(t, int64(2), snap.RaysShot)
	assert.Equal(t, int64(1), snap.LeavesHit)
}
