package loader

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/anim"
	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
)

// Articulated object file. Rotations are Euler angles in degrees.
type articulatedFile struct {
	Components []articulatedComponent `json:"components"`
	Animations []articulatedAnimation `json:"animations"`
}

type articulatedComponent struct {
	ID          string                 `json:"id"`
	Coordinates [3]float64             `json:"coordinates"`
	Rotation    [3]float64             `json:"rotation"`
	Scale       *[3]float64            `json:"scale"`
	Texture     string                 `json:"texture"`
	Object      *articulatedObject     `json:"object"`
	Children    []articulatedComponent `json:"children"`
}

// Faces are quads or triangles indexing Vertices, colors are 0..255 per face.
type articulatedObject struct {
	Vertices [][3]float32 `json:"vertices"`
	Faces    [][]uint32   `json:"faces"`
	Colors   [][4]float32 `json:"colors"`
}

type articulatedAnimation struct {
	Name      string  `json:"name"`
	Duration  float64 `json:"duration"`
	Keyframes []struct {
		Time       float64 `json:"time"`
		Transforms []struct {
			Component string     `json:"component"`
			Rotation  [3]float64 `json:"rotation"`
		} `json:"transforms"`
	} `json:"keyframes"`
}

// cube is the object of a component that does not carry its own.
var cube = articulatedObject{
	Vertices: [][3]float32{
		{100, 100, 100},
		{-100, 100, 100},
		{-100, -100, 100},
		{100, -100, 100},
		{100, 100, -100},
		{-100, 100, -100},
		{-100, -100, -100},
		{100, -100, -100},
	},
	Faces: [][]uint32{
		{0, 1, 2, 3},
		{5, 4, 7, 6},
		{4, 0, 3, 7},
		{1, 5, 6, 2},
		{0, 4, 5, 1},
		{2, 6, 7, 3},
	},
	Colors: [][4]float32{
		{255, 0, 0, 255},
		{255, 0, 0, 255},
		{255, 0, 0, 255},
		{255, 0, 0, 255},
		{255, 0, 0, 255},
		{255, 0, 0, 255},
	},
}

var (
	quadCorners = []int{1, 2, 3, 0, 1, 3}
	quadUV      = []float32{0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 1, 1}
	triCorners  = []int{0, 1, 2}
	triUV       = []float32{0, 0, 0, 1, 1, 1}
)

// vertexData unrolls the faces into a triangle list with scale applied to
// the positions.
func (o *articulatedObject) vertexData(scale [3]float64) (*r3d.VertexData, error) {
	vd := &r3d.VertexData{}
	for iFace, face := range o.Faces {
		var corners []int
		var uv []float32
		switch len(face) {
		case 4:
			corners, uv = quadCorners, quadUV
		case 3:
			corners, uv = triCorners, triUV
		default:
			return nil, errors.Wrapf(ErrInvalidModel, "face %d has %d vertices", iFace, len(face))
		}

		color := [4]float32{255, 255, 255, 255}
		if iFace < len(o.Colors) {
			color = o.Colors[iFace]
		}

		for _, corner := range corners {
			idx := face[corner]
			if int(idx) >= len(o.Vertices) {
				return nil, errors.Wrapf(ErrInvalidModel, "face %d references vertex %d of %d", iFace, idx, len(o.Vertices))
			}
			v := o.Vertices[idx]
			vd.Position = append(vd.Position,
				v[0]*float32(scale[0]), v[1]*float32(scale[1]), v[2]*float32(scale[2]))
			vd.Color = append(vd.Color, color[0]/255, color[1]/255, color[2]/255, color[3]/255)
		}
		vd.UV = append(vd.UV, uv...)
	}
	vd.GenerateNormals()
	return vd, nil
}

func (c *articulatedComponent) node(backend r3d.Backend, path string) (*r3d.Node, error) {
	name := c.ID
	if name == "" {
		name = path
	}

	object := c.Object
	if object == nil {
		object = &cube
	}
	scale := [3]float64{1, 1, 1}
	if c.Scale != nil {
		scale = *c.Scale
	}

	vd, err := object.vertexData(scale)
	if err != nil {
		return nil, errors.Wrapf(err, "component %q", name)
	}
	mesh, err := r3d.NewMesh(backend, vd, &r3d.Material{
		Name:      name,
		BaseColor: [4]float32{1, 1, 1, 1},
		Shading:   true,
		Texture:   c.Texture,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "component %q", name)
	}

	n := r3d.NewMeshInstance(name, mesh)
	n.Translation = math3d.Vector3{X: c.Coordinates[0], Y: c.Coordinates[1], Z: c.Coordinates[2]}
	n.Rotation = math3d.QuatFromEuler(math3d.Deg2Rad(math3d.Vector3{X: c.Rotation[0], Y: c.Rotation[1], Z: c.Rotation[2]}))

	for i := range c.Children {
		child, err := c.Children[i].node(backend, fmt.Sprintf("%s/%d", name, i))
		if err != nil {
			return nil, err
		}
		if _, err := n.AddNode(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (a *articulatedAnimation) animation(index int) (*anim.Animation, error) {
	result := &anim.Animation{
		Name:      a.Name,
		Duration:  a.Duration,
		Keyframes: make([]anim.Keyframe, 0, len(a.Keyframes)),
	}
	if result.Name == "" {
		result.Name = fmt.Sprintf("animation%d", index)
	}
	for _, k := range a.Keyframes {
		kf := anim.Keyframe{Time: k.Time}
		for _, tr := range k.Transforms {
			kf.Targets = append(kf.Targets, anim.Target{
				Node:     tr.Component,
				Rotation: math3d.Vector3{X: tr.Rotation[0], Y: tr.Rotation[1], Z: tr.Rotation[2]},
			})
		}
		result.Keyframes = append(result.Keyframes, kf)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// DecodeArticulated reads an articulated object. A single top level
// component becomes the root; several are grouped under a "scene" node.
// Meshes uploaded before an error are released again.
func DecodeArticulated(backend r3d.Backend, r io.Reader) (*Model, error) {
	var file articulatedFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "decode articulated object")
	}
	if len(file.Components) == 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "no components")
	}
	return buildModel(backend, file.model)
}

func (file *articulatedFile) model(backend r3d.Backend) (*Model, error) {
	m := &Model{}
	roots := make([]*r3d.Node, 0, len(file.Components))
	for i := range file.Components {
		n, err := file.Components[i].node(backend, fmt.Sprintf("component%d", i))
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	if len(roots) == 1 {
		m.Root = roots[0]
	} else {
		m.Root = r3d.NewNode("scene")
		for _, n := range roots {
			if _, err := m.Root.AddNode(n); err != nil {
				return nil, err
			}
		}
	}

	for i := range file.Animations {
		a, err := file.Animations[i].animation(i)
		if err != nil {
			return nil, err
		}
		m.Animations = append(m.Animations, a)
	}
	return m, nil
}
