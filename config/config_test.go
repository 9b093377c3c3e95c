package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, ProjectionPerspective, c.Camera.Projection)
	assert.Equal(t, 30, c.FPS)
	assert.Equal(t, "slerp", c.Animation.Interpolation)
}

func TestDecodeOverridesDefaults(t *testing.T) {
	c, err := Decode([]byte(`
model: arm.json
watch: true
camera:
  projection: orthographic
  size: 8
  position: [1, 2, 3]
animation:
  name: wave
`))
	require.NoError(t, err)

	assert.Equal(t, "arm.json", c.Model)
	assert.True(t, c.Watch)
	assert.Equal(t, ProjectionOrthographic, c.Camera.Projection)
	assert.Equal(t, 8.0, c.Camera.Size)
	assert.Equal(t, [3]float64{1, 2, 3}, c.Camera.Position)
	assert.Equal(t, "wave", c.Animation.Name)

	// untouched keys keep their defaults
	assert.Equal(t, ":8000", c.Listen)
	assert.Equal(t, 100.0, c.Camera.Far)
	assert.True(t, c.Animation.Play)
}

func TestDecodeEmpty(t *testing.T) {
	c, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"unknown field", "fsp: 10"},
		{"syntax", "fps: [1"},
		{"zero fps", "fps: 0"},
		{"bad projection", "camera: {projection: fisheye}"},
		{"bad fov", "camera: {fov: 180}"},
		{"bad size", "camera: {projection: orthographic, size: 0}"},
		{"near equals far", "camera: {near: 1, far: 1}"},
		{"bad oblique size", "camera: {projection: oblique, size: -1}"},
		{"flat oblique theta", "camera: {projection: oblique, theta: 0}"},
		{"flat oblique phi", "camera: {projection: oblique, phi: 180}"},
		{"zero orbit distance", "camera: {orbit: {distance: 0}}"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			assert.Error(t, err)
		})
	}

	_, err := Decode([]byte("width: -1"))
	assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
}

func TestDecodeObliqueOrbit(t *testing.T) {
	c, err := Decode([]byte(`
camera:
  projection: oblique
  theta: 30
  shading: false
  orbit:
    target: [0, 1, 0]
    distance: 12
    pitch: 20
    yaw: -45
`))
	require.NoError(t, err)
	assert.Equal(t, ProjectionOblique, c.Camera.Projection)
	assert.Equal(t, 30.0, c.Camera.Theta)
	assert.Equal(t, 45.0, c.Camera.Phi)
	assert.False(t, c.Camera.Shading)
	require.NotNil(t, c.Camera.Orbit)
	assert.Equal(t, Orbit{Target: [3]float64{0, 1, 0}, Distance: 12, Pitch: 20, Yaw: -45}, *c.Camera.Orbit)

	assert.True(t, Default().Camera.Shading)
	assert.Nil(t, Default().Camera.Orbit)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	c := Default()
	c.Model = "model.glb"
	c.Camera.Rotation = [3]float64{0, 45, 0}
	require.NoError(t, c.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model: model.glb")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
