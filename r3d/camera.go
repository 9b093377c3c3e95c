package r3d

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/math3d"
)

// Lens builds the projection for the current viewport aspect ratio.
type Lens interface {
	Projection(aspect float64) math3d.Projection
}

type Perspective struct {
	Fov  float64 `json:"fov" yaml:"fov"`
	Near float64 `json:"near" yaml:"near"`
	Far  float64 `json:"far" yaml:"far"`
}

func DefaultPerspective() *Perspective {
	return &Perspective{Fov: math.Pi / 2, Near: 0.05, Far: 100}
}

func (p *Perspective) Projection(aspect float64) math3d.Projection {
	return math3d.Perspective(p.Fov, aspect, p.Near, p.Far)
}

type Orthographic struct {
	Size float64 `json:"size" yaml:"size"`
	Near float64 `json:"near" yaml:"near"`
	Far  float64 `json:"far" yaml:"far"`
}

func DefaultOrthographic() *Orthographic {
	return &Orthographic{Size: 20, Near: 0, Far: 100}
}

func (o *Orthographic) Projection(aspect float64) math3d.Projection {
	top := o.Size / 2
	right := top * aspect
	return math3d.Orthographic(top, -top, -right, right, o.Near, o.Far)
}

// Oblique is an orthographic box with depth sheared into the picture
// plane, the cabinet style view of technical drawings. The shear pivots on
// the middle of the box so the view center stays in place.
type Oblique struct {
	Size  float64 `json:"size" yaml:"size"`
	Near  float64 `json:"near" yaml:"near"`
	Far   float64 `json:"far" yaml:"far"`
	Theta float64 `json:"theta" yaml:"theta"`
	Phi   float64 `json:"phi" yaml:"phi"`
}

func DefaultOblique() *Oblique {
	return &Oblique{Size: 20, Near: 0, Far: 100, Theta: math.Pi / 4, Phi: math.Pi / 4}
}

func (o *Oblique) Projection(aspect float64) math3d.Projection {
	ortho := (&Orthographic{Size: o.Size, Near: o.Near, Far: o.Far}).Projection(aspect)
	pivot := math3d.Vector3{Z: -(o.Near + o.Far) / 2}
	return ortho.
		MulTransform(math3d.TransformIdentity.PostTranslate(pivot)).
		Mul(math3d.Oblique(o.Theta, o.Phi)).
		MulTransform(math3d.TransformIdentity.PostTranslate(pivot.Neg()))
}

// Camera looks down its local +Z axis, Vector3Front.
type Camera struct {
	TRS
	Lens Lens

	backend Backend
}

func NewCamera(backend Backend, lens Lens) *Camera {
	return &Camera{
		TRS:     IdentityTRS(),
		Lens:    lens,
		backend: backend,
	}
}

func NewPerspectiveCamera(backend Backend) *Camera {
	return NewCamera(backend, DefaultPerspective())
}

func NewOrthographicCamera(backend Backend) *Camera {
	return NewCamera(backend, DefaultOrthographic())
}

func NewObliqueCamera(backend Backend) *Camera {
	return NewCamera(backend, DefaultOblique())
}

// View maps world space into camera space.
func (c *Camera) View() (math3d.Transform, error) {
	inv, err := c.Transform().Inverse()
	if err != nil {
		return math3d.Transform{}, errors.Wrapf(err, "camera view")
	}
	return inv.PostScale(math3d.Vector3{X: 1, Y: 1, Z: -1}), nil
}

func (c *Camera) ViewProjection(width, height int) (math3d.Projection, error) {
	if width <= 0 || height <= 0 {
		return math3d.Projection{}, errors.Wrapf(ErrEmptyViewport, "viewport %dx%d", width, height)
	}
	view, err := c.View()
	if err != nil {
		return math3d.Projection{}, err
	}
	projection := c.Lens.Projection(float64(width) / float64(height))
	return projection.MulTransform(view), nil
}

// Render draws one frame. Any failure aborts the frame before Flush.
func (c *Camera) Render(renderables ...Renderable) error {
	width, height := c.backend.Size()
	vp, err := c.ViewProjection(width, height)
	if err != nil {
		return err
	}

	if err := c.backend.BeginFrame(width, height); err != nil {
		return errors.Wrapf(err, "begin frame")
	}
	for _, r := range renderables {
		if err := r.Render(math3d.TransformIdentity, vp, c.Translation); err != nil {
			return err
		}
	}
	return errors.Wrapf(c.backend.Flush(), "flush")
}
