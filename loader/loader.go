package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/anim"
	"github.com/mogaika/model_viewer/r3d"
)

var (
	ErrUnknownFormat = errors.New("unknown model format")
	ErrInvalidModel  = errors.New("invalid model")
)

// Model is a loaded scene tree with the animations that drive it.
type Model struct {
	Root       *r3d.Node
	Animations []*anim.Animation
	Source     string
}

// Load picks the decoder by file extension: .json for articulated
// objects, .gltf and .glb for glTF.
func Load(backend r3d.Backend, path string) (*Model, error) {
	var m *Model
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, errors.Wrapf(err, "open %q", path)
		}
		defer f.Close()
		m, err = DecodeArticulated(backend, f)
	case ".gltf", ".glb":
		m, err = LoadGLTF(backend, path)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %q", path)
	}

	m.Source = path
	return m, nil
}

// MeshReleaser is implemented by backends that can drop uploaded meshes.
type MeshReleaser interface {
	Release(handles ...r3d.MeshHandle)
}

// trackingBackend records the meshes uploaded through it.
type trackingBackend struct {
	r3d.Backend
	created []r3d.MeshHandle
}

func (t *trackingBackend) CreateMesh(data *r3d.VertexData) (r3d.MeshHandle, error) {
	h, err := t.Backend.CreateMesh(data)
	if err == nil {
		t.created = append(t.created, h)
	}
	return h, err
}

// buildModel runs build against backend and, when it fails, releases every
// mesh uploaded before the failure so a broken file leaves no trace on the
// backend.
func buildModel(backend r3d.Backend, build func(r3d.Backend) (*Model, error)) (*Model, error) {
	t := &trackingBackend{Backend: backend}
	m, err := build(t)
	if err != nil {
		if r, ok := backend.(MeshReleaser); ok && len(t.created) != 0 {
			r.Release(t.created...)
		}
		return nil, err
	}
	return m, nil
}

// Animation returns the animation by name, or nil.
func (m *Model) Animation(name string) *anim.Animation {
	for _, a := range m.Animations {
		if a.Name == name {
			return a
		}
	}
	return nil
}
