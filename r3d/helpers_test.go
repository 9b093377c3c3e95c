package r3d

import (
	"github.com/pkg/errors"
)

type fakeBackend struct {
	width, height int

	meshes  []*VertexData
	begins  int
	calls   []DrawCall
	flushes int

	drawErr  error
	flushErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{width: 640, height: 480}
}

func (b *fakeBackend) Size() (int, int) { return b.width, b.height }

func (b *fakeBackend) CreateMesh(data *VertexData) (MeshHandle, error) {
	b.meshes = append(b.meshes, data)
	return MeshHandle(len(b.meshes)), nil
}

func (b *fakeBackend) BeginFrame(width, height int) error {
	b.begins++
	b.calls = b.calls[:0]
	return nil
}

func (b *fakeBackend) Draw(call DrawCall) error {
	if b.drawErr != nil {
		return b.drawErr
	}
	b.calls = append(b.calls, call)
	return nil
}

func (b *fakeBackend) Flush() error {
	if b.flushErr != nil {
		return b.flushErr
	}
	b.flushes++
	return nil
}

var errBoom = errors.New("boom")

func triangle() *VertexData {
	return &VertexData{
		Position: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normal:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
	}
}
