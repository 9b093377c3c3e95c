package loader

import (
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/unlit"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/model_viewer/r3d"
	"github.com/mogaika/model_viewer/utils/gltfutils"
)

// MeshSource gives back the vertex data uploaded under a handle.
type MeshSource interface {
	VertexData(handle r3d.MeshHandle) (*r3d.VertexData, bool)
}

type gltfExporter struct {
	doc        *gltf.Document
	source     MeshSource
	primitives map[r3d.MeshHandle]*gltf.Primitive
	materials  map[*r3d.Material]uint32
}

func group2[T any](flat []T) [][2]T {
	result := make([][2]T, len(flat)/2)
	for i := range result {
		copy(result[i][:], flat[i*2:])
	}
	return result
}

func group3[T any](flat []T) [][3]T {
	result := make([][3]T, len(flat)/3)
	for i := range result {
		copy(result[i][:], flat[i*3:])
	}
	return result
}

func group4[T any](flat []T) [][4]T {
	result := make([][4]T, len(flat)/4)
	for i := range result {
		copy(result[i][:], flat[i*4:])
	}
	return result
}

func (e *gltfExporter) useExtension(name string) {
	for _, used := range e.doc.ExtensionsUsed {
		if used == name {
			return
		}
	}
	e.doc.ExtensionsUsed = append(e.doc.ExtensionsUsed, name)
}

func (e *gltfExporter) material(m *r3d.Material) uint32 {
	if m == nil {
		m = &r3d.DefaultMaterial
	}
	if index, ok := e.materials[m]; ok {
		return index
	}

	color := new([4]float32)
	*color = m.BaseColor
	index := uint32(len(e.doc.Materials))
	gm := &gltf.Material{
		Name:        m.Name,
		DoubleSided: m.DoubleSided,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: color,
		},
	}
	if !m.Shading {
		gm.Extensions = gltf.Extensions{unlit.ExtensionName: unlit.Unlit{}}
		e.useExtension(unlit.ExtensionName)
	}
	e.doc.Materials = append(e.doc.Materials, gm)
	e.materials[m] = index
	return index
}

func (e *gltfExporter) primitive(mesh *r3d.Mesh) (*gltf.Primitive, error) {
	if p, ok := e.primitives[mesh.Handle]; ok {
		return p, nil
	}
	vd, ok := e.source.VertexData(mesh.Handle)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidModel, "no vertex data for mesh %d", mesh.Handle)
	}

	attributes := make(map[string]uint32)
	attributes["POSITION"] = modeler.WritePosition(e.doc, group3(vd.Position))
	if len(vd.Normal) != 0 {
		attributes["NORMAL"] = modeler.WriteNormal(e.doc, group3(vd.Normal))
	}
	if len(vd.UV) != 0 {
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(e.doc, group2(vd.UV))
	}
	if len(vd.Color) != 0 {
		colors := make([][4]uint8, 0, len(vd.Color)/4)
		for _, c := range group4(vd.Color) {
			colors = append(colors, [4]uint8{
				uint8(c[0]*255 + 0.5), uint8(c[1]*255 + 0.5), uint8(c[2]*255 + 0.5), uint8(c[3]*255 + 0.5),
			})
		}
		attributes["COLOR_0"] = modeler.WriteColor(e.doc, colors)
	}
	if len(vd.Joints) != 0 {
		attributes["JOINTS_0"] = modeler.WriteJoints(e.doc, group4(vd.Joints))
	}
	if len(vd.Weights) != 0 {
		attributes["WEIGHTS_0"] = modeler.WriteWeights(e.doc, group4(vd.Weights))
	}
	if len(vd.Tangent) != 0 {
		attributes["TANGENT"] = modeler.WriteTangent(e.doc, group4(vd.Tangent))
	}

	p := &gltf.Primitive{
		Attributes: attributes,
		Material:   gltf.Index(e.material(mesh.Material)),
	}
	if vd.IsIndexed() {
		p.Indices = gltf.Index(modeler.WriteIndices(e.doc, vd.Index))
	}
	e.primitives[mesh.Handle] = p
	return p, nil
}

func (e *gltfExporter) node(n *r3d.Node) (uint32, error) {
	gn := &gltf.Node{
		Name:        n.Name,
		Translation: n.Translation.Array32(),
		Rotation: [4]float32{
			float32(n.Rotation.X), float32(n.Rotation.Y), float32(n.Rotation.Z), float32(n.Rotation.W),
		},
		Scale: n.Scale.Array32(),
	}
	index := uint32(len(e.doc.Nodes))
	e.doc.Nodes = append(e.doc.Nodes, gn)

	if len(n.Meshes) != 0 {
		gm := &gltf.Mesh{Name: n.Name}
		for _, mesh := range n.Meshes {
			p, err := e.primitive(mesh)
			if err != nil {
				return 0, errors.Wrapf(err, "node %q", n.Name)
			}
			gm.Primitives = append(gm.Primitives, p)
		}
		gn.Mesh = gltf.Index(uint32(len(e.doc.Meshes)))
		e.doc.Meshes = append(e.doc.Meshes, gm)
	}

	for _, child := range n.Children() {
		iChild, err := e.node(child)
		if err != nil {
			return 0, err
		}
		gn.Children = append(gn.Children, iChild)
	}
	return index, nil
}

// ExportDocument converts the subtree into a glTF document with root as
// the only scene node.
func ExportDocument(root *r3d.Node, source MeshSource) (*gltf.Document, error) {
	e := &gltfExporter{
		doc:        gltfutils.NewDocument(),
		source:     source,
		primitives: make(map[r3d.MeshHandle]*gltf.Primitive),
		materials:  make(map[*r3d.Material]uint32),
	}
	iRoot, err := e.node(root)
	if err != nil {
		return nil, err
	}
	e.doc.Scenes[0].Name = root.Name
	e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, iRoot)
	return e.doc, nil
}

// ExportGLB writes the subtree as a binary glTF stream.
func ExportGLB(w io.Writer, root *r3d.Node, source MeshSource) error {
	doc, err := ExportDocument(root, source)
	if err != nil {
		return err
	}
	return gltfutils.ExportBinary(w, doc)
}
