package math3d

import "math"

// QuatFromEuler converts angles in radians applied around X, then Y, then Z
// (fixed axes), i.e. qz * qy * qx.
func QuatFromEuler(v Vector3) Quat {
	sx, cx := math.Sincos(v.X * 0.5)
	sy, cy := math.Sincos(v.Y * 0.5)
	sz, cz := math.Sincos(v.Z * 0.5)

	return Quat{
		W: cx*cy*cz + sx*sy*sz,
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
	}
}

// Euler is the inverse of QuatFromEuler, result in radians.
// Pitch is clamped to ±π/2 at the gimbal lock.
func (q Quat) Euler() (e Vector3) {
	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	e.X = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if math.Abs(sinp) >= 1 {
		e.Y = math.Copysign(math.Pi/2, sinp)
	} else {
		e.Y = math.Asin(sinp)
	}

	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	e.Z = math.Atan2(sinyCosp, cosyCosp)

	return e
}

func Deg2Rad(v Vector3) Vector3 {
	return v.MulScalar(math.Pi / 180)
}

func Rad2Deg(v Vector3) Vector3 {
	return v.MulScalar(180 / math.Pi)
}
