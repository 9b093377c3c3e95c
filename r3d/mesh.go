package r3d

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/math3d"
)

// VertexData is a flat vertex layout. Position and Normal are required;
// every other stream is either empty or sized for the same vertex count.
type VertexData struct {
	Position []float32 `json:"position"`
	Normal   []float32 `json:"normal"`
	UV       []float32 `json:"uv,omitempty"`
	Color    []float32 `json:"color,omitempty"`
	Joints   []uint16  `json:"joints,omitempty"`
	Weights  []float32 `json:"weights,omitempty"`
	Tangent  []float32 `json:"tangent,omitempty"`
	Index    []uint32  `json:"index,omitempty"`
}

func (vd *VertexData) VertexCount() int { return len(vd.Position) / 3 }

func (vd *VertexData) IsIndexed() bool { return len(vd.Index) != 0 }

func checkStream(name string, got, vertices, components int) error {
	if got != 0 && got != vertices*components {
		return errors.Wrapf(ErrVertexLayout, "%s has %d values, want %d for %d vertices",
			name, got, vertices*components, vertices)
	}
	return nil
}

func (vd *VertexData) Validate() error {
	if len(vd.Position) == 0 || len(vd.Position)%3 != 0 {
		return errors.Wrapf(ErrVertexLayout, "position has %d values", len(vd.Position))
	}
	n := vd.VertexCount()
	if len(vd.Normal) != len(vd.Position) {
		return errors.Wrapf(ErrVertexLayout, "normal has %d values, want %d for %d vertices",
			len(vd.Normal), len(vd.Position), n)
	}

	for _, s := range []struct {
		name       string
		got, comps int
	}{
		{"uv", len(vd.UV), 2},
		{"color", len(vd.Color), 4},
		{"joints", len(vd.Joints), 4},
		{"weights", len(vd.Weights), 4},
		{"tangent", len(vd.Tangent), 4},
	} {
		if err := checkStream(s.name, s.got, n, s.comps); err != nil {
			return err
		}
	}

	if len(vd.Index)%3 != 0 {
		return errors.Wrapf(ErrVertexLayout, "index has %d values, not a triangle list", len(vd.Index))
	}
	for i, idx := range vd.Index {
		if int(idx) >= n {
			return errors.Wrapf(ErrVertexLayout, "index[%d] = %d, only %d vertices", i, idx, n)
		}
	}
	if !vd.IsIndexed() && n%3 != 0 {
		return errors.Wrapf(ErrVertexLayout, "%d vertices, not a triangle list", n)
	}
	return nil
}

func unindexStream[T any](src []T, index []uint32, comps int) []T {
	if len(src) == 0 {
		return nil
	}
	dst := make([]T, 0, len(index)*comps)
	for _, idx := range index {
		i := int(idx) * comps
		dst = append(dst, src[i:i+comps]...)
	}
	return dst
}

// Unindex expands an indexed mesh so that every triangle owns its vertices.
func (vd *VertexData) Unindex() {
	if !vd.IsIndexed() {
		return
	}
	vd.Position = unindexStream(vd.Position, vd.Index, 3)
	vd.Normal = unindexStream(vd.Normal, vd.Index, 3)
	vd.UV = unindexStream(vd.UV, vd.Index, 2)
	vd.Color = unindexStream(vd.Color, vd.Index, 4)
	vd.Joints = unindexStream(vd.Joints, vd.Index, 4)
	vd.Weights = unindexStream(vd.Weights, vd.Index, 4)
	vd.Tangent = unindexStream(vd.Tangent, vd.Index, 4)
	vd.Index = nil
}

func (vd *VertexData) vertex(i int) math3d.Vector3 {
	return math3d.Vector3{
		X: float64(vd.Position[i*3]),
		Y: float64(vd.Position[i*3+1]),
		Z: float64(vd.Position[i*3+2]),
	}
}

// GenerateNormals unindexes the mesh and assigns every triangle its face
// normal. Degenerate triangles get a zero normal.
func (vd *VertexData) GenerateNormals() {
	vd.Unindex()

	n := vd.VertexCount()
	vd.Normal = make([]float32, len(vd.Position))
	degenerate := 0
	for i := 0; i+2 < n; i += 3 {
		a, b, c := vd.vertex(i), vd.vertex(i+1), vd.vertex(i+2)
		normal, err := b.Sub(a).Cross(c.Sub(a)).Normalize()
		if err != nil {
			degenerate++
			continue
		}
		for j := i; j < i+3; j++ {
			copy(vd.Normal[j*3:], []float32{float32(normal.X), float32(normal.Y), float32(normal.Z)})
		}
	}
	if degenerate != 0 {
		math3d.Logger().Debug("degenerate triangles while generating normals", "count", degenerate)
	}
}

// Bounds returns the axis aligned box of the positions.
func (vd *VertexData) Bounds() (min, max math3d.Vector3) {
	min = math3d.Vector3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = min.Neg()
	for i := 0; i < vd.VertexCount(); i++ {
		v := vd.vertex(i)
		min = math3d.Vector3{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = math3d.Vector3{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}

// Material describes the surface of a mesh. Shading enables diffuse and
// specular lighting; an unshaded material draws with its flat colors.
type Material struct {
	Name        string     `json:"name,omitempty"`
	BaseColor   [4]float32 `json:"base_color"`
	DoubleSided bool       `json:"double_sided"`
	Shading     bool       `json:"shading"`
	Texture     string     `json:"texture,omitempty"`
}

var DefaultMaterial = Material{
	Name:      "default",
	BaseColor: [4]float32{1, 1, 1, 1},
	Shading:   true,
}

// Mesh is vertex data uploaded to a backend. It is a Renderable leaf.
type Mesh struct {
	Handle   MeshHandle
	Material *Material

	backend Backend
}

// NewMesh validates data and uploads it. A nil material draws with
// DefaultMaterial.
func NewMesh(backend Backend, data *VertexData, material *Material) (*Mesh, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	handle, err := backend.CreateMesh(data)
	if err != nil {
		return nil, errors.Wrapf(err, "create mesh")
	}
	return &Mesh{
		Handle:   handle,
		Material: material,
		backend:  backend,
	}, nil
}

func (m *Mesh) Render(world math3d.Transform, viewProjection math3d.Projection, cameraPosition math3d.Vector3) error {
	material := m.Material
	if material == nil {
		material = &DefaultMaterial
	}
	return m.backend.Draw(DrawCall{
		Mesh:           m.Handle,
		Model:          world,
		ViewProjection: viewProjection,
		CameraPosition: cameraPosition,
		Material:       material,
		DoubleSided:    material.DoubleSided,
		Shading:        material.Shading,
	})
}
