package math3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type Vector2 struct {
	X, Y float64
}

var (
	Vector2Zero  = Vector2{}
	Vector2One   = Vector2{1, 1}
	Vector2Up    = Vector2{0, 1}
	Vector2Down  = Vector2{0, -1}
	Vector2Left  = Vector2{-1, 0}
	Vector2Right = Vector2{1, 0}
)

func (v Vector2) Neg() Vector2 { return Vector2{-v.X, -v.Y} }

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Mul(o Vector2) Vector2 { return Vector2{v.X * o.X, v.Y * o.Y} }
func (v Vector2) Div(o Vector2) Vector2 { return Vector2{v.X / o.X, v.Y / o.Y} }

func (v Vector2) AddScalar(s float64) Vector2 { return Vector2{v.X + s, v.Y + s} }
func (v Vector2) SubScalar(s float64) Vector2 { return Vector2{v.X - s, v.Y - s} }
func (v Vector2) MulScalar(s float64) Vector2 { return Vector2{v.X * s, v.Y * s} }
func (v Vector2) DivScalar(s float64) Vector2 { return Vector2{v.X / s, v.Y / s} }

func (v Vector2) Dot(o Vector2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vector2) Cross(o Vector2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vector2) LengthSquared() float64  { return v.Dot(v) }
func (v Vector2) Length() float64         { return math.Sqrt(v.LengthSquared()) }
func (v Vector2) Array() [2]float64       { return [2]float64{v.X, v.Y} }

func (v Vector2) ApproxEqual(o Vector2) bool {
	return v.ApproxEqualThreshold(o, 1e-9)
}

func (v Vector2) ApproxEqualThreshold(o Vector2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

func (v Vector2) Normalize() (Vector2, error) {
	l := v.Length()
	if l == 0 {
		return Vector2{}, errors.Wrapf(ErrZeroLength, "normalize %v", v)
	}
	return v.DivScalar(l), nil
}

// Vector3 is an immutable 3D vector; every operation returns a new value.
type Vector3 struct {
	X, Y, Z float64
}

var (
	Vector3Zero  = Vector3{}
	Vector3One   = Vector3{1, 1, 1}
	Vector3Up    = Vector3{0, 1, 0}
	Vector3Down  = Vector3{0, -1, 0}
	Vector3Left  = Vector3{-1, 0, 0}
	Vector3Right = Vector3{1, 0, 0}
	Vector3Front = Vector3{0, 0, 1}
	Vector3Back  = Vector3{0, 0, -1}
)

func Vec3FromArray32(a [3]float32) Vector3 {
	return Vector3{float64(a[0]), float64(a[1]), float64(a[2])}
}

func Vec3FromMgl(v mgl64.Vec3) Vector3 {
	return Vector3{v[0], v[1], v[2]}
}

func (v Vector3) Neg() Vector3 { return Vector3{-v.X, -v.Y, -v.Z} }

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Mul(o Vector3) Vector3 { return Vector3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vector3) Div(o Vector3) Vector3 { return Vector3{v.X / o.X, v.Y / o.Y, v.Z / o.Z} }

func (v Vector3) AddScalar(s float64) Vector3 { return Vector3{v.X + s, v.Y + s, v.Z + s} }
func (v Vector3) SubScalar(s float64) Vector3 { return Vector3{v.X - s, v.Y - s, v.Z - s} }
func (v Vector3) MulScalar(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }
func (v Vector3) DivScalar(s float64) Vector3 { return Vector3{v.X / s, v.Y / s, v.Z / s} }

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) LengthSquared() float64 { return v.Dot(v) }
func (v Vector3) Length() float64        { return math.Sqrt(v.LengthSquared()) }

// Normalize fails with ErrZeroLength for the zero vector.
func (v Vector3) Normalize() (Vector3, error) {
	l := v.Length()
	if l == 0 {
		return Vector3{}, errors.Wrapf(ErrZeroLength, "normalize %v", v)
	}
	return v.DivScalar(l), nil
}

func (v Vector3) Mgl() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func (v Vector3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func (v Vector3) Array32() [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (v Vector3) ApproxEqual(o Vector3) bool {
	return v.ApproxEqualThreshold(o, 1e-9)
}

func (v Vector3) ApproxEqualThreshold(o Vector3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}
