package r3d

import (
	"github.com/mogaika/model_viewer/math3d"
)

// Renderable is anything the camera traversal can visit. world already
// contains every ancestor transform but not the receiver's own.
type Renderable interface {
	Render(world math3d.Transform, viewProjection math3d.Projection, cameraPosition math3d.Vector3) error
}

type Surface interface {
	Size() (width, height int)
}

type MeshHandle uint32

// DrawCall carries everything the backend needs to draw one mesh. GL state
// such as face culling is derived from the call, never left over from a
// previous one.
type DrawCall struct {
	Mesh           MeshHandle
	Model          math3d.Transform
	ViewProjection math3d.Projection
	CameraPosition math3d.Vector3
	Material       *Material
	DoubleSided    bool
	Shading        bool
}

// Backend is the graphics binding. It owns GPU side resources and the
// output surface.
type Backend interface {
	Surface
	CreateMesh(data *VertexData) (MeshHandle, error)
	BeginFrame(width, height int) error
	Draw(call DrawCall) error
	Flush() error
}
