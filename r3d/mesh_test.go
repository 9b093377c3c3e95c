package r3d

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexDataValidate(t *testing.T) {
	quad := func() VertexData {
		return VertexData{
			Position: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
			Normal:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
			Index:    []uint32{0, 1, 2, 0, 2, 3},
		}
	}

	cases := []struct {
		name   string
		modify func(*VertexData)
		ok     bool
	}{
		{"valid", func(*VertexData) {}, true},
		{"all streams", func(vd *VertexData) {
			vd.UV = make([]float32, 8)
			vd.Color = make([]float32, 16)
			vd.Joints = make([]uint16, 16)
			vd.Weights = make([]float32, 16)
			vd.Tangent = make([]float32, 16)
		}, true},
		{"empty", func(vd *VertexData) { vd.Position = nil }, false},
		{"position not multiple of 3", func(vd *VertexData) {
			vd.Position = vd.Position[:11]
			vd.Normal = vd.Normal[:11]
		}, false},
		{"missing normal", func(vd *VertexData) { vd.Normal = nil }, false},
		{"short normal", func(vd *VertexData) { vd.Normal = make([]float32, 9) }, false},
		{"short uv", func(vd *VertexData) { vd.UV = make([]float32, 6) }, false},
		{"uv sized like normal", func(vd *VertexData) { vd.UV = make([]float32, 12) }, false},
		{"short color", func(vd *VertexData) { vd.Color = make([]float32, 12) }, false},
		{"short joints", func(vd *VertexData) { vd.Joints = make([]uint16, 4) }, false},
		{"short weights", func(vd *VertexData) { vd.Weights = make([]float32, 15) }, false},
		{"short tangent", func(vd *VertexData) { vd.Tangent = make([]float32, 12) }, false},
		{"index not triangles", func(vd *VertexData) { vd.Index = vd.Index[:5] }, false},
		{"index out of range", func(vd *VertexData) { vd.Index[4] = 4 }, false},
		{"unindexed not triangles", func(vd *VertexData) { vd.Index = nil }, false},
		{"unindexed triangles", func(vd *VertexData) {
			vd.Index = nil
			vd.Position = vd.Position[:9]
			vd.Normal = vd.Normal[:9]
		}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vd := quad()
			c.modify(&vd)
			err := vd.Validate()
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, ErrVertexLayout, errors.Cause(err))
			}
		})
	}
}

func TestNewMeshRejectsInvalidLayout(t *testing.T) {
	b := newFakeBackend()
	_, err := NewMesh(b, &VertexData{Position: []float32{0, 0}}, nil)
	assert.Equal(t, ErrVertexLayout, errors.Cause(err))

	_, err = NewMesh(b, &VertexData{Position: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}}, nil)
	assert.Equal(t, ErrVertexLayout, errors.Cause(err))
	assert.Empty(t, b.meshes)
}

func TestMeshDrawCallMaterial(t *testing.T) {
	b := newFakeBackend()
	material := &Material{Name: "cloth", BaseColor: [4]float32{1, 0, 0, 1}, DoubleSided: true}
	m, err := NewMesh(b, triangle(), material)
	require.NoError(t, err)
	plain, err := NewMesh(b, triangle(), nil)
	require.NoError(t, err)

	require.NoError(t, NewPerspectiveCamera(b).Render(m, plain))
	require.Len(t, b.calls, 2)
	assert.Same(t, material, b.calls[0].Material)
	assert.True(t, b.calls[0].DoubleSided)
	assert.False(t, b.calls[0].Shading)
	assert.Equal(t, m.Handle, b.calls[0].Mesh)

	assert.Same(t, &DefaultMaterial, b.calls[1].Material)
	assert.False(t, b.calls[1].DoubleSided)
	assert.True(t, b.calls[1].Shading)
}

func TestUnindex(t *testing.T) {
	vd := VertexData{
		Position: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		UV:       []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Index:    []uint32{0, 1, 2, 0, 2, 3},
	}
	vd.Unindex()
	assert.Equal(t, ErrVertexLayout, errors.Cause(vd.Validate()))
	vd.Normal = make([]float32, len(vd.Position))
	require.NoError(t, vd.Validate())
	assert.False(t, vd.IsIndexed())
	assert.Equal(t, 6, vd.VertexCount())
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0, 1, 0}, vd.Position)
	assert.Equal(t, []float32{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 0, 1}, vd.UV)
}

func TestGenerateNormals(t *testing.T) {
	vd := VertexData{
		Position: []float32{
			0, 0, 0, 1, 0, 0, 0, 1, 0,
			// degenerate
			0, 0, 0, 1, 0, 0, 2, 0, 0,
		},
	}
	vd.GenerateNormals()
	require.NoError(t, vd.Validate())
	assert.Equal(t, []float32{
		0, 0, 1, 0, 0, 1, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	}, vd.Normal)
}

func TestBounds(t *testing.T) {
	vd := VertexData{Position: []float32{-1, 2, 3, 4, -5, 6, 0, 0, -7}}
	min, max := vd.Bounds()
	assert.Equal(t, [3]float64{-1, -5, -7}, min.Array())
	assert.Equal(t, [3]float64{4, 2, 6}, max.Array())
}
