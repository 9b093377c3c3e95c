package anim

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
)

func wave() *Animation {
	return &Animation{
		Name:     "wave",
		Duration: 2,
		Keyframes: []Keyframe{
			{Time: 1, Targets: []Target{{Node: "arm", Rotation: math3d.Vector3{Y: 90}}}},
			{Time: 0, Targets: []Target{
				{Node: "arm", Rotation: math3d.Vector3{}},
				{Node: "ghost", Rotation: math3d.Vector3{X: 10}},
			}},
			{Time: 2, Targets: []Target{{Node: "arm", Rotation: math3d.Vector3{Y: 180}}}},
		},
	}
}

func TestValidateSorts(t *testing.T) {
	a := wave()
	require.NoError(t, a.Validate())
	for i, want := range []float64{0, 1, 2} {
		assert.Equal(t, want, a.Keyframes[i].Time)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []*Animation{
		{Duration: -1},
		{Duration: math.NaN()},
		{Duration: 1, Keyframes: []Keyframe{{Time: -0.5}}},
		{Duration: 1, Keyframes: []Keyframe{{Time: math.Inf(1)}}},
	}
	for i, a := range cases {
		assert.Equal(t, ErrInvalidAnimation, errors.Cause(a.Validate()), "case %d", i)
	}
}

func TestLookup(t *testing.T) {
	a := wave()
	require.NoError(t, a.Validate())

	cases := []struct {
		time       float64
		prev, next float64 // -1 when absent
	}{
		{0, 0, 1},
		{0.5, 0, 1},
		{1, 1, 2},
		{1.999, 1, 2},
		{2, 2, -1},
	}
	for _, c := range cases {
		prev, next := a.Lookup(c.time)
		if c.prev < 0 {
			assert.Nil(t, prev)
		} else if assert.NotNil(t, prev, "time %v", c.time) {
			assert.Equal(t, c.prev, prev.Time)
		}
		if c.next < 0 {
			assert.Nil(t, next)
		} else if assert.NotNil(t, next, "time %v", c.time) {
			assert.Equal(t, c.next, next.Time)
		}
	}

	late := &Animation{Duration: 3, Keyframes: []Keyframe{{Time: 1}, {Time: 2}}}
	prev, next := late.Lookup(0.5)
	assert.Nil(t, prev)
	assert.Equal(t, 1.0, next.Time)
}

func TestLerpEuler(t *testing.T) {
	from := math3d.Vector3{}
	to := math3d.Vector3{Y: 90}
	assert.Equal(t, math3d.Vector3{Y: 45}, LerpEuler(&from, &to, 0, 2, 1))
	assert.Equal(t, to, LerpEuler(nil, &to, 0, 2, 1))
	assert.Equal(t, from, LerpEuler(&from, nil, 0, 2, 1))
}

func TestSlerpEuler(t *testing.T) {
	from := math3d.Vector3{}
	to := math3d.Vector3{Y: 90}
	got := SlerpEuler(&from, &to, 0, 2, 1)
	want, err := math3d.QuatFromAxisAngle(math3d.Vector3Up, math.Pi/4)
	require.NoError(t, err)
	assert.True(t, got.ApproxEqualRotation(want, 1e-9))
}

func TestSampleModes(t *testing.T) {
	a := wave()
	require.NoError(t, a.Validate())

	for _, mode := range []Interpolation{InterpolateLinear, InterpolateSlerp} {
		t.Run(mode.String(), func(t *testing.T) {
			poses := a.Sample(0.5, mode)
			require.Len(t, poses, 2)
			assert.Equal(t, "arm", poses[0].Node)
			assert.True(t, math3d.Rad2Deg(poses[0].Rotation.Euler()).ApproxEqualThreshold(math3d.Vector3{Y: 45}, 1e-9))

			// no matching target in the next keyframe holds the previous value
			assert.Equal(t, "ghost", poses[1].Node)
			assert.True(t, math3d.Rad2Deg(poses[1].Rotation.Euler()).ApproxEqualThreshold(math3d.Vector3{X: 10}, 1e-9))
		})
	}
}

func TestModesDifferAcrossLargeArcs(t *testing.T) {
	a := &Animation{Duration: 1, Keyframes: []Keyframe{
		{Time: 0, Targets: []Target{{Node: "n", Rotation: math3d.Vector3{X: 90, Y: 0}}}},
		{Time: 1, Targets: []Target{{Node: "n", Rotation: math3d.Vector3{X: 0, Y: 90}}}},
	}}
	linear := a.Sample(0.5, InterpolateLinear)[0].Rotation
	slerp := a.Sample(0.5, InterpolateSlerp)[0].Rotation
	assert.False(t, linear.ApproxEqualRotation(slerp, 1e-6))
}

func TestParseInterpolation(t *testing.T) {
	for s, want := range map[string]Interpolation{"": InterpolateSlerp, "slerp": InterpolateSlerp, "linear": InterpolateLinear} {
		got, err := ParseInterpolation(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseInterpolation("cubic")
	assert.Error(t, err)
}

func TestPlayerAdvanceWraps(t *testing.T) {
	p := NewPlayer(wave(), InterpolateSlerp)
	p.Advance(1)
	assert.Equal(t, 0.0, p.Time, "paused player does not move")

	p.Playing = true
	p.Advance(1.5)
	assert.Equal(t, 1.5, p.Time)
	p.Advance(0.5)
	assert.Equal(t, 2.0, p.Time)
	p.Advance(0.25)
	assert.Equal(t, 0.0, p.Time)

	p.Seek(5)
	assert.Equal(t, 2.0, p.Time)
	p.Seek(-1)
	assert.Equal(t, 0.0, p.Time)
}

func TestPlayerApply(t *testing.T) {
	root := r3d.NewNode("root")
	arm := r3d.NewNode("arm")
	_, err := root.AddNode(arm)
	require.NoError(t, err)

	a := wave()
	require.NoError(t, a.Validate())
	p := NewPlayer(a, InterpolateLinear)
	p.Seek(0.5)

	// "ghost" is not in the tree
	assert.Equal(t, 1, p.Apply(root))
	assert.True(t, math3d.Rad2Deg(arm.Rotation.Euler()).ApproxEqualThreshold(math3d.Vector3{Y: 45}, 1e-9))
	assert.Equal(t, math3d.QuatIdentity, root.Rotation)

	assert.Equal(t, 0, NewPlayer(nil, InterpolateSlerp).Apply(root))
}

func TestPlayerApplyBeforeFirstKeyframe(t *testing.T) {
	root := r3d.NewNode("n")
	a := &Animation{Duration: 3, Keyframes: []Keyframe{
		{Time: 1, Targets: []Target{{Node: "n", Rotation: math3d.Vector3{Z: 30}}}},
	}}
	p := NewPlayer(a, InterpolateSlerp)
	p.Seek(0.5)
	assert.Equal(t, 1, p.Apply(root))
	assert.True(t, math3d.Rad2Deg(root.Rotation.Euler()).ApproxEqualThreshold(math3d.Vector3{Z: 30}, 1e-9))
}
