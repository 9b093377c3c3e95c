package math3d

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspectiveNearFar(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 0.1, 100)

	near, err := p.MulVector(Vector3{0, 0, -0.1})
	require.NoError(t, err)
	assert.InDelta(t, -1, near.Z, 1e-9)

	far, err := p.MulVector(Vector3{0, 0, -100})
	require.NoError(t, err)
	assert.InDelta(t, 1, far.Z, 1e-9)

	// 90 degrees: the frustum edge at depth d lies at x = d
	edge, err := p.MulVector(Vector3{5, -5, -5})
	require.NoError(t, err)
	assert.InDelta(t, 1, edge.X, 1e-9)
	assert.InDelta(t, -1, edge.Y, 1e-9)
}

func TestPerspectiveAspect(t *testing.T) {
	p := Perspective(math.Pi/3, 2, 1, 10)
	f := 1 / math.Tan(math.Pi/6)
	assert.InDelta(t, f/2, p[0], 1e-12)
	assert.InDelta(t, f, p[5], 1e-12)
	assert.Equal(t, -1.0, p[11])
}

func TestPerspectiveZeroW(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 0.1, 100)
	_, err := p.MulVector(Vector3{1, 1, 0})
	require.Error(t, err)
	assert.Equal(t, ErrZeroW, errors.Cause(err))
}

func TestOrthographic(t *testing.T) {
	p := Orthographic(10, -10, -20, 20, 0, 100)

	cases := []struct {
		in, out Vector3
	}{
		{Vector3{0, 0, 0}, Vector3{0, 0, -1}},
		{Vector3{20, 10, -100}, Vector3{1, 1, 1}},
		{Vector3{-20, -10, -50}, Vector3{-1, -1, 0}},
	}
	for _, c := range cases {
		got, err := p.MulVector(c.in)
		require.NoError(t, err)
		assert.True(t, got.ApproxEqualThreshold(c.out, 1e-12), "%v -> %v", c.in, got)
	}
}

func TestProjectionMulTransform(t *testing.T) {
	p := Perspective(1.2, 1.5, 0.5, 50)
	tr := TransformFromTRS(Vector3{1, 2, -10}, mustAxisAngle(t, Vector3Up, 0.3), Vector3{1, 2, 1})
	v := Vector3{0.5, 0.25, -1}

	got, err := p.MulTransform(tr).MulVector(v)
	require.NoError(t, err)
	want, err := p.MulVector(tr.MulVector(v))
	require.NoError(t, err)
	assert.True(t, got.ApproxEqualThreshold(want, 1e-9))

	assert.True(t, ProjectionIdentity.Mul(p).ApproxEqual(p, 0))
	assert.True(t, p.Transpose().Transpose().ApproxEqual(p, 0))
}

func TestProjectionMatrixExport(t *testing.T) {
	m := ProjectionIdentity.Matrix4x4()
	assert.Equal(t, [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, m)
}

func TestOblique(t *testing.T) {
	p := Oblique(math.Pi/4, math.Pi/4)
	v, err := p.MulVector(Vector3{0, 0, -1})
	require.NoError(t, err)
	assert.True(t, v.ApproxEqualThreshold(Vector3{1, 1, -1}, 1e-9))

	v, err = p.MulVector(Vector3{2, 3, 0})
	require.NoError(t, err)
	assert.True(t, v.ApproxEqualThreshold(Vector3{2, 3, 0}, 1e-9))

	p = Oblique(math.Pi/2, math.Atan(2))
	v, err = p.MulVector(Vector3{0, 0, -4})
	require.NoError(t, err)
	assert.True(t, v.ApproxEqualThreshold(Vector3{0, 2, -4}, 1e-9))
}
