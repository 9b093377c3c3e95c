package loader

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/unlit"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
)

// LoadGLTF opens a .gltf or .glb file, resolving external buffers relative
// to the file.
func LoadGLTF(backend r3d.Backend, path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read gltf")
	}
	return FromDocument(backend, doc)
}

// DecodeGLTF reads a self contained glTF or GLB stream.
func DecodeGLTF(backend r3d.Backend, r io.Reader) (*Model, error) {
	doc := &gltf.Document{}
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to read gltf")
	}
	return FromDocument(backend, doc)
}

type gltfBuilder struct {
	backend   r3d.Backend
	doc       *gltf.Document
	meshes    map[uint32][]*r3d.Mesh
	materials map[uint32]*r3d.Material
	visited   map[uint32]bool
}

// FromDocument builds the tree of the default scene, or of the first
// scene when none is marked default. Meshes uploaded before an error are
// released again.
func FromDocument(backend r3d.Backend, doc *gltf.Document) (*Model, error) {
	return buildModel(backend, func(backend r3d.Backend) (*Model, error) {
		return fromDocument(backend, doc)
	})
}

func fromDocument(backend r3d.Backend, doc *gltf.Document) (*Model, error) {
	b := &gltfBuilder{
		backend:   backend,
		doc:       doc,
		meshes:    make(map[uint32][]*r3d.Mesh),
		materials: make(map[uint32]*r3d.Material),
		visited:   make(map[uint32]bool),
	}

	sceneIndex := uint32(0)
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if int(sceneIndex) >= len(doc.Scenes) {
		return nil, errors.Wrapf(ErrInvalidModel, "scene %d of %d", sceneIndex, len(doc.Scenes))
	}
	scene := doc.Scenes[sceneIndex]

	name := scene.Name
	if name == "" {
		name = "scene"
	}
	root := r3d.NewNode(name)
	for _, iNode := range scene.Nodes {
		n, err := b.node(iNode)
		if err != nil {
			return nil, err
		}
		if _, err := root.AddNode(n); err != nil {
			return nil, err
		}
	}
	return &Model{Root: root}, nil
}

func isZero[T comparable](values []T) bool {
	var zero T
	for _, v := range values {
		if v != zero {
			return false
		}
	}
	return true
}

// setNodeTransform applies the node matrix when present, TRS otherwise.
// Zero rotation and scale arrays come from documents built in memory and
// mean "not set".
func setNodeTransform(n *r3d.Node, gn *gltf.Node) error {
	identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	if gn.Matrix != identity && !isZero(gn.Matrix[:]) {
		return n.SetTransform(math3d.TransformFromMatrix(gn.Matrix))
	}

	n.Translation = math3d.Vec3FromArray32(gn.Translation)
	if !isZero(gn.Rotation[:]) {
		n.Rotation = math3d.Quat{
			W: float64(gn.Rotation[3]),
			X: float64(gn.Rotation[0]),
			Y: float64(gn.Rotation[1]),
			Z: float64(gn.Rotation[2]),
		}
	}
	if !isZero(gn.Scale[:]) {
		n.Scale = math3d.Vec3FromArray32(gn.Scale)
	}
	return nil
}

func (b *gltfBuilder) node(index uint32) (*r3d.Node, error) {
	if int(index) >= len(b.doc.Nodes) {
		return nil, errors.Wrapf(ErrInvalidModel, "node %d of %d", index, len(b.doc.Nodes))
	}
	if b.visited[index] {
		return nil, errors.Wrapf(r3d.ErrAlreadyAttached, "gltf node %d referenced twice", index)
	}
	b.visited[index] = true

	gn := b.doc.Nodes[index]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node%d", index)
	}

	n := r3d.NewNode(name)
	if err := setNodeTransform(n, gn); err != nil {
		return nil, errors.Wrapf(err, "node %q", name)
	}
	if gn.Mesh != nil {
		meshes, err := b.mesh(*gn.Mesh)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
		n.Meshes = meshes
	}

	for _, iChild := range gn.Children {
		child, err := b.node(iChild)
		if err != nil {
			return nil, err
		}
		if _, err := n.AddNode(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *gltfBuilder) mesh(index uint32) ([]*r3d.Mesh, error) {
	if meshes, ok := b.meshes[index]; ok {
		return meshes, nil
	}
	if int(index) >= len(b.doc.Meshes) {
		return nil, errors.Wrapf(ErrInvalidModel, "mesh %d of %d", index, len(b.doc.Meshes))
	}

	gm := b.doc.Meshes[index]
	meshes := make([]*r3d.Mesh, 0, len(gm.Primitives))
	for iPrimitive, primitive := range gm.Primitives {
		if primitive.Mode != gltf.PrimitiveTriangles {
			log.Printf("[loader] mesh %q primitive %d: mode %v is not triangles, skipped", gm.Name, iPrimitive, primitive.Mode)
			continue
		}

		vd, err := b.vertexData(primitive)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %q primitive %d", gm.Name, iPrimitive)
		}

		var material *r3d.Material
		if primitive.Material != nil {
			if material, err = b.material(*primitive.Material); err != nil {
				return nil, err
			}
		}

		mesh, err := r3d.NewMesh(b.backend, vd, material)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %q primitive %d", gm.Name, iPrimitive)
		}
		meshes = append(meshes, mesh)
	}

	b.meshes[index] = meshes
	return meshes, nil
}

func (b *gltfBuilder) accessor(primitive *gltf.Primitive, attribute string) (*gltf.Accessor, bool, error) {
	index, ok := primitive.Attributes[attribute]
	if !ok {
		return nil, false, nil
	}
	if int(index) >= len(b.doc.Accessors) {
		return nil, false, errors.Wrapf(ErrInvalidModel, "%s accessor %d of %d", attribute, index, len(b.doc.Accessors))
	}
	return b.doc.Accessors[index], true, nil
}

func flatten2[T any](values [][2]T) []T {
	result := make([]T, 0, len(values)*2)
	for _, v := range values {
		result = append(result, v[:]...)
	}
	return result
}

func flatten3[T any](values [][3]T) []T {
	result := make([]T, 0, len(values)*3)
	for _, v := range values {
		result = append(result, v[:]...)
	}
	return result
}

func flatten4[T any](values [][4]T) []T {
	result := make([]T, 0, len(values)*4)
	for _, v := range values {
		result = append(result, v[:]...)
	}
	return result
}

func (b *gltfBuilder) vertexData(primitive *gltf.Primitive) (*r3d.VertexData, error) {
	vd := &r3d.VertexData{}

	acr, ok, err := b.accessor(primitive, "POSITION")
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.Wrapf(ErrInvalidModel, "primitive without POSITION")
	}
	positions, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read mesh vertices")
	}
	vd.Position = flatten3(positions)

	if primitive.Indices != nil {
		if int(*primitive.Indices) >= len(b.doc.Accessors) {
			return nil, errors.Wrapf(ErrInvalidModel, "indices accessor %d", *primitive.Indices)
		}
		if vd.Index, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*primitive.Indices], nil); err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh indices")
		}
	}

	if acr, ok, err := b.accessor(primitive, "NORMAL"); err != nil {
		return nil, err
	} else if ok {
		normals, err := modeler.ReadNormal(b.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh normals")
		}
		vd.Normal = flatten3(normals)
	}

	if acr, ok, err := b.accessor(primitive, "TEXCOORD_0"); err != nil {
		return nil, err
	} else if ok {
		uvs, err := modeler.ReadTextureCoord(b.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh uvs")
		}
		vd.UV = flatten2(uvs)
	}

	if acr, ok, err := b.accessor(primitive, "COLOR_0"); err != nil {
		return nil, err
	} else if ok {
		colors, err := modeler.ReadColor(b.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh colors")
		}
		vd.Color = make([]float32, 0, len(colors)*4)
		for _, c := range colors {
			vd.Color = append(vd.Color, float32(c[0])/255, float32(c[1])/255, float32(c[2])/255, float32(c[3])/255)
		}
	}

	if acr, ok, err := b.accessor(primitive, "JOINTS_0"); err != nil {
		return nil, err
	} else if ok {
		joints, err := modeler.ReadJoints(b.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh joints")
		}
		vd.Joints = flatten4(joints)
	}

	if acr, ok, err := b.accessor(primitive, "WEIGHTS_0"); err != nil {
		return nil, err
	} else if ok {
		weights, err := modeler.ReadWeights(b.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh weights")
		}
		vd.Weights = flatten4(weights)
	}

	if acr, ok, err := b.accessor(primitive, "TANGENT"); err != nil {
		return nil, err
	} else if ok {
		tangents, err := modeler.ReadTangent(b.doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh tangents")
		}
		vd.Tangent = flatten4(tangents)
	}

	if len(vd.Normal) == 0 {
		vd.GenerateNormals()
	}
	return vd, nil
}

func (b *gltfBuilder) material(index uint32) (*r3d.Material, error) {
	if m, ok := b.materials[index]; ok {
		return m, nil
	}
	if int(index) >= len(b.doc.Materials) {
		return nil, errors.Wrapf(ErrInvalidModel, "material %d of %d", index, len(b.doc.Materials))
	}

	gm := b.doc.Materials[index]
	m := &r3d.Material{
		Name:        gm.Name,
		BaseColor:   [4]float32{1, 1, 1, 1},
		DoubleSided: gm.DoubleSided,
	}
	_, isUnlit := gm.Extensions[unlit.ExtensionName]
	m.Shading = !isUnlit
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			m.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.BaseColorTexture != nil {
			m.Texture = b.textureName(pbr.BaseColorTexture.Index)
		}
	}

	b.materials[index] = m
	return m, nil
}

func (b *gltfBuilder) textureName(index uint32) string {
	if int(index) >= len(b.doc.Textures) {
		return ""
	}
	t := b.doc.Textures[index]
	if t.Source == nil || int(*t.Source) >= len(b.doc.Images) {
		return t.Name
	}
	img := b.doc.Images[*t.Source]
	if img.Name != "" {
		return img.Name
	}
	if img.URI != "" && !strings.HasPrefix(img.URI, "data:") {
		return img.URI
	}
	return fmt.Sprintf("image%d", *t.Source)
}
