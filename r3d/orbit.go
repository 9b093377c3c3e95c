package r3d

import (
	"math"

	"github.com/mogaika/model_viewer/math3d"
)

const (
	minOrbitDistance = 1e-3
	maxOrbitPitch    = math.Pi / 2
)

// Orbit keeps a camera on a sphere around Target, facing it. Pitch lifts
// the camera above the target, Yaw turns it around the y axis. Angles are
// radians; at zero yaw the camera sits on the +Z side of the target.
type Orbit struct {
	Target   math3d.Vector3
	Distance float64
	Pitch    float64
	Yaw      float64
}

func NewOrbit(target math3d.Vector3, distance, pitch, yaw float64) *Orbit {
	return &Orbit{
		Target:   target,
		Distance: distance,
		Pitch:    pitch,
		Yaw:      yaw,
	}
}

func (o *Orbit) Position() math3d.Vector3 {
	sp, cp := math.Sincos(o.Pitch)
	sy, cy := math.Sincos(o.Yaw)
	return o.Target.Add(math3d.Vector3{X: cp * sy, Y: sp, Z: cp * cy}.MulScalar(o.Distance))
}

// Rotation turns Vector3Front toward the target without roll.
func (o *Orbit) Rotation() math3d.Quat {
	return math3d.QuatFromEuler(math3d.Vector3{X: o.Pitch, Y: o.Yaw + math.Pi})
}

// Apply places t on the orbit. Scale is left alone.
func (o *Orbit) Apply(t *TRS) {
	t.Translation = o.Position()
	t.Rotation = o.Rotation()
}

// ProcessInput drives the orbit with the same actions as the free camera:
// look actions turn around the target, front and back change the distance
// and the move actions pan the target in the view plane.
func (o *Orbit) ProcessInput(delta float64, in *Input, c Controller) bool {
	pressed := in.snapshot()
	turn := c.RotateRate * delta
	move := c.MoveRate * delta
	changed := false

	for a := Action(0); a < actionCount; a++ {
		if !pressed[a] {
			continue
		}
		switch a {
		case ActionLookUp:
			o.Pitch -= turn
		case ActionLookDown:
			o.Pitch += turn
		case ActionLookLeft:
			o.Yaw -= turn
		case ActionLookRight:
			o.Yaw += turn
		case ActionFront:
			o.Distance -= move
		case ActionBack:
			o.Distance += move
		case ActionUp, ActionDown, ActionLeft, ActionRight:
			o.Target = o.Target.Add(o.Rotation().Rotate(moveDirections[a].MulScalar(move)))
		default:
			continue
		}
		changed = true
	}

	o.Pitch = math.Max(-maxOrbitPitch, math.Min(maxOrbitPitch, o.Pitch))
	o.Distance = math.Max(minOrbitDistance, o.Distance)
	return changed
}
