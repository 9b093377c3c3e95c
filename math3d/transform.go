package math3d

import (
	"math"

	"github.com/pkg/errors"
)

// Transform is an affine map: X, Y, Z are the images of the unit axes and
// Origin is the translation. The basis does not have to be orthonormal.
type Transform struct {
	X, Y, Z Vector3
	Origin  Vector3
}

var TransformIdentity = Transform{
	X: Vector3Right,
	Y: Vector3Up,
	Z: Vector3Front,
}

// trace below this selects the largest-diagonal branch when converting
// a rotation matrix to a quaternion
const traceEpsilon = 1e-3

// TransformFromTRS builds translate * rotate * scale.
func TransformFromTRS(translation Vector3, rotation Quat, scale Vector3) Transform {
	r := rotation.Transform()
	return Transform{
		X:      r.X.MulScalar(scale.X),
		Y:      r.Y.MulScalar(scale.Y),
		Z:      r.Z.MulScalar(scale.Z),
		Origin: translation,
	}
}

// TransformFromMatrix reads a column-major 4x4 matrix, ignoring the
// projective row.
func TransformFromMatrix(m [16]float32) Transform {
	return Transform{
		X:      Vector3{float64(m[0]), float64(m[1]), float64(m[2])},
		Y:      Vector3{float64(m[4]), float64(m[5]), float64(m[6])},
		Z:      Vector3{float64(m[8]), float64(m[9]), float64(m[10])},
		Origin: Vector3{float64(m[12]), float64(m[13]), float64(m[14])},
	}
}

func (t Transform) Position() Vector3 { return t.Origin }

func (t Transform) Determinant() float64 {
	return basisDeterminant(t.X, t.Y, t.Z)
}

func basisDeterminant(x, y, z Vector3) float64 {
	return x.X*y.Y*z.Z +
		x.Y*y.Z*z.X +
		x.Z*y.X*z.Y -
		x.X*y.Z*z.Y -
		x.Y*y.X*z.Z -
		x.Z*y.Y*z.X
}

// Mul composes t and o so that o is applied first.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		X:      t.MulBasis(o.X),
		Y:      t.MulBasis(o.Y),
		Z:      t.MulBasis(o.Z),
		Origin: t.MulVector(o.Origin),
	}
}

// MulVector maps a point.
func (t Transform) MulVector(v Vector3) Vector3 {
	return t.MulBasis(v).Add(t.Origin)
}

// MulBasis maps a direction, ignoring the origin.
func (t Transform) MulBasis(v Vector3) Vector3 {
	return Vector3{
		t.X.X*v.X + t.Y.X*v.Y + t.Z.X*v.Z,
		t.X.Y*v.X + t.Y.Y*v.Y + t.Z.Y*v.Z,
		t.X.Z*v.X + t.Y.Z*v.Y + t.Z.Z*v.Z,
	}
}

// Inverse uses the adjugate of the basis. A (near) zero determinant is
// reported as ErrSingular.
func (t Transform) Inverse() (Transform, error) {
	v00 := t.Y.Y*t.Z.Z - t.Z.Y*t.Y.Z
	v01 := t.Y.Z*t.Z.X - t.Z.Z*t.Y.X
	v02 := t.Y.X*t.Z.Y - t.Z.X*t.Y.Y
	v10 := t.Z.Y*t.X.Z - t.X.Y*t.Z.Z
	v11 := t.Z.Z*t.X.X - t.X.Z*t.Z.X
	v12 := t.Z.X*t.X.Y - t.X.X*t.Z.Y
	v20 := t.X.Y*t.Y.Z - t.Y.Y*t.X.Z
	v21 := t.X.Z*t.Y.X - t.Y.Z*t.X.X
	v22 := t.X.X*t.Y.Y - t.Y.X*t.X.Y

	det := t.X.X*v00 + t.Y.X*v10 + t.Z.X*v20
	if math.Abs(det) < epsilon {
		return Transform{}, errors.Wrapf(ErrSingular, "inverse (det %g)", det)
	}
	idet := 1 / det

	v00 *= idet
	v01 *= idet
	v02 *= idet
	v10 *= idet
	v11 *= idet
	v12 *= idet
	v20 *= idet
	v21 *= idet
	v22 *= idet

	o := t.Origin
	return Transform{
		X: Vector3{v00, v10, v20},
		Y: Vector3{v01, v11, v21},
		Z: Vector3{v02, v12, v22},
		Origin: Vector3{
			-(v00*o.X + v01*o.Y + v02*o.Z),
			-(v10*o.X + v11*o.Y + v12*o.Z),
			-(v20*o.X + v21*o.Y + v22*o.Z),
		},
	}, nil
}

func (t Transform) orthonormalBasis() (x, y, z Vector3, err error) {
	x, y, z = t.X, t.Y, t.Z

	if x, err = x.Normalize(); err != nil {
		return
	}
	y = y.Sub(x.MulScalar(x.Dot(y)))
	if y, err = y.Normalize(); err != nil {
		return
	}
	z = z.Sub(x.MulScalar(x.Dot(z)))
	z = z.Sub(y.MulScalar(y.Dot(z)))
	z, err = z.Normalize()
	return
}

// Orthonormalize runs Gram-Schmidt over the basis in x, y, z order and
// keeps the origin.
func (t Transform) Orthonormalize() (Transform, error) {
	x, y, z, err := t.orthonormalBasis()
	if err != nil {
		return Transform{}, errors.Wrapf(err, "orthonormalize")
	}
	return Transform{X: x, Y: y, Z: z, Origin: t.Origin}, nil
}

// Rotation extracts the rotational part of the basis. Reflections are
// folded into the scale, see Scale.
func (t Transform) Rotation() (Quat, error) {
	x, y, z, err := t.orthonormalBasis()
	if err != nil {
		return Quat{}, errors.Wrapf(err, "rotation")
	}

	if basisDeterminant(x, y, z) < 0 {
		x, y, z = x.Neg(), y.Neg(), z.Neg()
	}

	return quatFromBasis(x, y, z), nil
}

// quatFromBasis converts an orthonormal proper rotation. d[c][r] is row r
// of column c.
func quatFromBasis(x, y, z Vector3) Quat {
	tr := x.X + y.Y + z.Z
	if tr > traceEpsilon {
		r := math.Sqrt(1 + tr)
		s := 0.5 / r
		return Quat{0.5 * r, (y.Z - z.Y) * s, (z.X - x.Z) * s, (x.Y - y.X) * s}
	}

	d := [3][3]float64{x.Array(), y.Array(), z.Array()}
	var i int
	if x.X >= y.Y {
		if x.X >= z.Z {
			i = 0
		} else {
			i = 2
		}
	} else if y.Y >= z.Z {
		i = 1
	} else {
		i = 2
	}
	j := (i + 1) % 3
	k := (j + 1) % 3

	r := math.Sqrt(d[i][i] - d[j][j] - d[k][k] + 1)
	s := 0.5 / r

	var q [4]float64
	q[0] = (d[j][k] - d[k][j]) * s
	q[i+1] = 0.5 * r
	q[j+1] = (d[j][i] + d[i][j]) * s
	q[k+1] = (d[k][i] + d[i][k]) * s
	return Quat{q[0], q[1], q[2], q[3]}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Scale returns the length of every basis column, negated when the basis
// is a reflection.
func (t Transform) Scale() Vector3 {
	d := sign(t.Determinant())
	return Vector3{
		t.X.Length() * d,
		t.Y.Length() * d,
		t.Z.Length() * d,
	}
}

// ScaleLiteral reproduces the legacy scale formula, which sums rows instead
// of columns and adds the z component to itself instead of squaring it.
// Only kept to compare against Scale.
func (t Transform) ScaleLiteral() Vector3 {
	d := sign(t.Determinant())
	return Vector3{
		math.Sqrt(t.X.X*t.X.X+t.Y.X*t.Y.X+t.Z.X+t.Z.X) * d,
		math.Sqrt(t.X.Y*t.X.Y+t.Y.Y*t.Y.Y+t.Z.Y+t.Z.Y) * d,
		math.Sqrt(t.X.Z*t.X.Z+t.Y.Z*t.Y.Z+t.Z.Z+t.Z.Z) * d,
	}
}

// Decompose splits t into translation, rotation and scale such that
// TransformFromTRS reproduces t for bases without shear.
func (t Transform) Decompose() (translation Vector3, rotation Quat, scale Vector3, err error) {
	rotation, err = t.Rotation()
	if err != nil {
		return
	}
	return t.Origin, rotation, t.Scale(), nil
}

func (t Transform) PostTranslate(v Vector3) Transform {
	t.Origin = t.Origin.Add(v)
	return t
}

func (t Transform) PreTranslate(v Vector3) Transform {
	t.Origin = t.MulVector(v)
	return t
}

func (t Transform) PostRotate(q Quat) Transform {
	return q.Transform().Mul(t)
}

func (t Transform) PreRotate(q Quat) Transform {
	return t.Mul(q.Transform())
}

// PostScale scales the result of t, origin included.
func (t Transform) PostScale(s Vector3) Transform {
	return Transform{
		X:      t.X.Mul(s),
		Y:      t.Y.Mul(s),
		Z:      t.Z.Mul(s),
		Origin: t.Origin.Mul(s),
	}
}

// PreScale scales the input of t, leaving the origin untouched.
func (t Transform) PreScale(s Vector3) Transform {
	return Transform{
		X:      t.X.MulScalar(s.X),
		Y:      t.Y.MulScalar(s.Y),
		Z:      t.Z.MulScalar(s.Z),
		Origin: t.Origin,
	}
}

// Matrix4x4 is the column-major homogeneous matrix for uniform upload.
func (t Transform) Matrix4x4() [16]float32 {
	return [16]float32{
		float32(t.X.X), float32(t.X.Y), float32(t.X.Z), 0,
		float32(t.Y.X), float32(t.Y.Y), float32(t.Y.Z), 0,
		float32(t.Z.X), float32(t.Z.Y), float32(t.Z.Z), 0,
		float32(t.Origin.X), float32(t.Origin.Y), float32(t.Origin.Z), 1,
	}
}

// Matrix4x3 drops the constant projective row.
func (t Transform) Matrix4x3() [12]float32 {
	return [12]float32{
		float32(t.X.X), float32(t.X.Y), float32(t.X.Z),
		float32(t.Y.X), float32(t.Y.Y), float32(t.Y.Z),
		float32(t.Z.X), float32(t.Z.Y), float32(t.Z.Z),
		float32(t.Origin.X), float32(t.Origin.Y), float32(t.Origin.Z),
	}
}

func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return t.X.ApproxEqualThreshold(o.X, eps) &&
		t.Y.ApproxEqualThreshold(o.Y, eps) &&
		t.Z.ApproxEqualThreshold(o.Z, eps) &&
		t.Origin.ApproxEqualThreshold(o.Origin, eps)
}
