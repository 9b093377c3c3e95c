package math3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Projection is a general 4x4 matrix stored column-major, the layout the
// backend expects for uniform upload.
type Projection mgl64.Mat4

var ProjectionIdentity = Projection(mgl64.Ident4())

// Perspective builds a right-handed OpenGL clip-space projection: the eye
// looks down -Z and NDC z spans [-1, 1]. fov is the vertical field of view
// in radians.
func Perspective(fov, aspect, near, far float64) Projection {
	return Projection(mgl64.Perspective(fov, aspect, near, far))
}

// Orthographic maps the given box to NDC with the same conventions as
// Perspective.
func Orthographic(top, bottom, left, right, near, far float64) Projection {
	return Projection(mgl64.Ortho(left, right, bottom, top, near, far))
}

// Oblique shears depth into the picture plane: a point one unit further
// down -Z moves by 1/tan(theta) along X and 1/tan(phi) along Y. Angles are
// radians measured from the picture plane, pi/2 leaves the axis unsheared.
func Oblique(theta, phi float64) Projection {
	p := ProjectionIdentity
	p[8] = -1 / math.Tan(theta)
	p[9] = -1 / math.Tan(phi)
	return p
}

func ProjectionFromTransform(t Transform) Projection {
	return Projection{
		t.X.X, t.X.Y, t.X.Z, 0,
		t.Y.X, t.Y.Y, t.Y.Z, 0,
		t.Z.X, t.Z.Y, t.Z.Z, 0,
		t.Origin.X, t.Origin.Y, t.Origin.Z, 1,
	}
}

func (p Projection) Mat() mgl64.Mat4 { return mgl64.Mat4(p) }

// Mul composes p and o so that o is applied first.
func (p Projection) Mul(o Projection) Projection {
	return Projection(p.Mat().Mul4(o.Mat()))
}

func (p Projection) MulTransform(t Transform) Projection {
	return p.Mul(ProjectionFromTransform(t))
}

// MulVector projects a point and performs the perspective divide.
func (p Projection) MulVector(v Vector3) (Vector3, error) {
	r := p.Mat().Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	if math.Abs(r[3]) < epsilon {
		return Vector3{}, errors.Wrapf(ErrZeroW, "project %v", v)
	}
	iw := 1 / r[3]
	return Vector3{r[0] * iw, r[1] * iw, r[2] * iw}, nil
}

func (p Projection) Transpose() Projection {
	return Projection(p.Mat().Transpose())
}

func (p Projection) Matrix4x4() [16]float32 {
	var r [16]float32
	for i, v := range p {
		r[i] = float32(v)
	}
	return r
}

func (p Projection) ApproxEqual(o Projection, eps float64) bool {
	return p.Mat().ApproxEqualThreshold(o.Mat(), eps)
}
