package math3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Quat is a rotation quaternion. Composition follows the Hamilton product:
// p.Mul(q) rotates by q first, then by p.
type Quat struct {
	W, X, Y, Z float64
}

var QuatIdentity = Quat{W: 1}

// drift above this value is reported as a normalization warning
const quatDriftTolerance = 1e-6

// QuatFromAxisAngle returns the rotation of angle radians around axis.
// The axis does not have to be normalized but must not be zero.
func QuatFromAxisAngle(axis Vector3, angle float64) (Quat, error) {
	axis, err := axis.Normalize()
	if err != nil {
		return Quat{}, errors.Wrapf(err, "axis angle")
	}
	s, c := math.Sincos(angle * 0.5)
	return Quat{c, axis.X * s, axis.Y * s, axis.Z * s}, nil
}

func QuatFromMgl(q mgl64.Quat) Quat {
	return Quat{q.W, q.V[0], q.V[1], q.V[2]}
}

func (q Quat) Mgl() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Rotate rotates v by q without building a matrix:
// v' = v + 2u×(u×v + w·v), u being the vector part of q.
func (q Quat) Rotate(v Vector3) Vector3 {
	q.checkDrift("rotate")

	x := q.Y*v.Z - q.Z*v.Y + q.W*v.X
	y := q.Z*v.X - q.X*v.Z + q.W*v.Y
	z := q.X*v.Y - q.Y*v.X + q.W*v.Z

	x2 := q.Y*z - q.Z*y
	y2 := q.Z*x - q.X*z
	z2 := q.X*y - q.Y*x

	return Vector3{v.X + x2 + x2, v.Y + y2 + y2, v.Z + z2 + z2}
}

func (q Quat) Dot(o Quat) float64 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

func (q Quat) LengthSquared() float64 { return q.Dot(q) }
func (q Quat) Length() float64        { return math.Sqrt(q.LengthSquared()) }

func (q Quat) Normalize() (Quat, error) {
	l := q.Length()
	if l == 0 {
		return Quat{}, errors.Wrapf(ErrZeroLength, "normalize quaternion")
	}
	linv := 1 / l
	return Quat{q.W * linv, q.X * linv, q.Y * linv, q.Z * linv}, nil
}

func (q Quat) Conjugate() Quat {
	return Quat{q.W, -q.X, -q.Y, -q.Z}
}

// Inverse is the conjugate scaled by 1/|q|², so it is also valid for
// quaternions that drifted away from unit length.
func (q Quat) Inverse() (Quat, error) {
	l := q.LengthSquared()
	if l == 0 {
		return Quat{}, errors.Wrapf(ErrZeroLength, "invert quaternion")
	}
	linv := 1 / l
	return Quat{q.W * linv, -q.X * linv, -q.Y * linv, -q.Z * linv}, nil
}

// Transform returns the rotation matrix of q with a zero origin.
func (q Quat) Transform() Transform {
	q.checkDrift("to transform")

	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xw2 := q.X * q.W * 2
	xy2 := q.X * q.Y * 2
	xz2 := q.X * q.Z * 2
	yw2 := q.Y * q.W * 2
	yz2 := q.Y * q.Z * 2
	zw2 := q.Z * q.W * 2

	return Transform{
		X: Vector3{1 - 2*(yy+zz), xy2 + zw2, xz2 - yw2},
		Y: Vector3{xy2 - zw2, 1 - 2*(xx+zz), yz2 + xw2},
		Z: Vector3{xz2 + yw2, yz2 - xw2, 1 - 2*(xx+yy)},
	}
}

// Slerp interpolates along the shortest arc between q and o.
func (q Quat) Slerp(o Quat, t float64) Quat {
	if q.Dot(o) < 0 {
		o = Quat{-o.W, -o.X, -o.Y, -o.Z}
	}
	return QuatFromMgl(mgl64.QuatSlerp(q.Mgl(), o.Mgl(), t))
}

// ApproxEqualRotation reports whether q and o describe the same rotation,
// treating q and -q as equal.
func (q Quat) ApproxEqualRotation(o Quat, eps float64) bool {
	return math.Abs(math.Abs(q.Dot(o))-1) <= eps
}

func (q Quat) checkDrift(op string) {
	if drift := math.Abs(1 - q.LengthSquared()); drift > quatDriftTolerance {
		Logger().Warn("quaternion is not normalized, rotation may be incorrect",
			"op", op, "quat", q, "drift", drift)
	}
}
