// Package drawlist is a rendering backend that records draw calls into
// frames instead of issuing them. A frame is handed to a sink on Flush and
// replayed by the browser client.
package drawlist

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/r3d"
)

var (
	ErrNoFrame     = errors.New("draw outside of frame")
	ErrUnknownMesh = errors.New("unknown mesh")
)

type Call struct {
	Mesh           r3d.MeshHandle `json:"mesh"`
	Model          [16]float32    `json:"model"`
	ViewProjection [16]float32    `json:"view_projection"`
	CameraPosition [3]float32     `json:"camera_position"`
	Material       r3d.Material   `json:"material"`
	DoubleSided    bool           `json:"double_sided"`
	Shading        bool           `json:"shading"`
}

type Frame struct {
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Generation changes every time the mesh registry is reset, clients
	// drop their cached buffers when it does.
	Generation uint64 `json:"generation"`
	Calls      []Call `json:"calls"`
}

// Backend keeps the uploaded meshes and the frame being recorded. Size and
// mesh lookups are safe for concurrent use; frame recording belongs to the
// render loop.
type Backend struct {
	mu         sync.RWMutex
	width      int
	height     int
	meshes     map[r3d.MeshHandle]*r3d.VertexData
	lastHandle r3d.MeshHandle
	generation uint64

	frame   *Frame
	seq     uint64
	sink    func(*Frame)
	shading bool
}

// New creates a backend with the given initial surface size. sink
// receives every flushed frame and may be nil.
func New(width, height int, sink func(*Frame)) *Backend {
	return &Backend{
		width:  width,
		height: height,
		meshes:  make(map[r3d.MeshHandle]*r3d.VertexData),
		sink:    sink,
		shading: true,
	}
}

// SetShading switches lighting for the whole frame. With shading off every
// call is recorded unshaded whatever its material says.
func (b *Backend) SetShading(on bool) { b.shading = on }

func (b *Backend) Shading() bool { return b.shading }

func (b *Backend) Size() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}

// Resize follows the client canvas size.
func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
}

func (b *Backend) CreateMesh(data *r3d.VertexData) (r3d.MeshHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastHandle++
	b.meshes[b.lastHandle] = data
	return b.lastHandle, nil
}

func (b *Backend) VertexData(handle r3d.MeshHandle) (*r3d.VertexData, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	vd, ok := b.meshes[handle]
	return vd, ok
}

func (b *Backend) MeshCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.meshes)
}

func (b *Backend) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

// Reset drops every uploaded mesh. Handles are not reused.
func (b *Backend) Reset() {
	b.mu.Lock()
	b.meshes = make(map[r3d.MeshHandle]*r3d.VertexData)
	b.generation++
	b.mu.Unlock()
}

// Release drops the given meshes, used when a reloaded model replaces the
// previous one.
func (b *Backend) Release(handles ...r3d.MeshHandle) {
	b.mu.Lock()
	for _, h := range handles {
		delete(b.meshes, h)
	}
	b.generation++
	b.mu.Unlock()
}

func (b *Backend) BeginFrame(width, height int) error {
	b.seq++
	b.frame = &Frame{
		Seq:        b.seq,
		Width:      width,
		Height:     height,
		Generation: b.Generation(),
		Calls:      make([]Call, 0, b.MeshCount()),
	}
	return nil
}

func (b *Backend) Draw(call r3d.DrawCall) error {
	if b.frame == nil {
		return ErrNoFrame
	}
	if _, ok := b.VertexData(call.Mesh); !ok {
		return errors.Wrapf(ErrUnknownMesh, "handle %d", call.Mesh)
	}

	c := Call{
		Mesh:           call.Mesh,
		Model:          call.Model.Matrix4x4(),
		ViewProjection: call.ViewProjection.Matrix4x4(),
		CameraPosition: call.CameraPosition.Array32(),
		Material:       r3d.DefaultMaterial,
		DoubleSided:    call.DoubleSided,
		Shading:        call.Shading && b.shading,
	}
	if call.Material != nil {
		c.Material = *call.Material
	}
	b.frame.Calls = append(b.frame.Calls, c)
	return nil
}

func (b *Backend) Flush() error {
	if b.frame == nil {
		return ErrNoFrame
	}
	frame := b.frame
	b.frame = nil
	if b.sink != nil {
		b.sink(frame)
	}
	return nil
}

// Abort discards a frame left open by a failed render.
func (b *Backend) Abort() {
	b.frame = nil
}
