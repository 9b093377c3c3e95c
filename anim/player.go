package anim

import (
	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
)

type Interpolation int

const (
	// InterpolateSlerp blends the keyframe rotations as quaternions.
	InterpolateSlerp Interpolation = iota
	// InterpolateLinear blends the Euler angles componentwise.
	InterpolateLinear
)

func (i Interpolation) String() string {
	switch i {
	case InterpolateSlerp:
		return "slerp"
	case InterpolateLinear:
		return "linear"
	default:
		return "unknown"
	}
}

func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "slerp":
		return InterpolateSlerp, nil
	case "linear":
		return InterpolateLinear, nil
	default:
		return 0, errors.Errorf("unknown interpolation %q", s)
	}
}

// Pose is the sampled rotation of one node.
type Pose struct {
	Node     string
	Rotation math3d.Quat
}

// Sample evaluates a at time t. Targets are taken from the previous
// keyframe, or from the next one before the first keyframe.
func (a *Animation) Sample(t float64, mode Interpolation) []Pose {
	prev, next := a.Lookup(t)

	source := prev
	if source == nil {
		source = next
	}
	if source == nil {
		return nil
	}

	poses := make([]Pose, 0, len(source.Targets))
	for _, target := range source.Targets {
		var from, to *math3d.Vector3
		var fromTime, toTime float64
		if prev != nil {
			if tg := prev.Find(target.Node); tg != nil {
				from, fromTime = &tg.Rotation, prev.Time
			}
		}
		if next != nil {
			if tg := next.Find(target.Node); tg != nil {
				to, toTime = &tg.Rotation, next.Time
			}
		}

		var rotation math3d.Quat
		switch mode {
		case InterpolateLinear:
			rotation = math3d.QuatFromEuler(math3d.Deg2Rad(LerpEuler(from, to, fromTime, toTime, t)))
		default:
			rotation = SlerpEuler(from, to, fromTime, toTime, t)
		}
		poses = append(poses, Pose{Node: target.Node, Rotation: rotation})
	}
	return poses
}

// Player keeps the playback position of one animation.
type Player struct {
	Animation *Animation
	Mode      Interpolation
	Playing   bool
	Time      float64
}

func NewPlayer(a *Animation, mode Interpolation) *Player {
	return &Player{Animation: a, Mode: mode}
}

// Advance moves the playback position by delta seconds while playing,
// wrapping to 0 once past the duration.
func (p *Player) Advance(delta float64) {
	if !p.Playing || p.Animation == nil {
		return
	}
	p.Time += delta
	if p.Time > p.Animation.Duration {
		p.Time = 0
	}
}

// Apply writes the sampled rotations onto the nodes with matching names
// and returns how many nodes were updated. Unknown names are skipped.
func (p *Player) Apply(root *r3d.Node) int {
	if p.Animation == nil || root == nil {
		return 0
	}
	applied := 0
	for _, pose := range p.Animation.Sample(p.Time, p.Mode) {
		if node := root.FindByName(pose.Node); node != nil {
			node.Rotation = pose.Rotation
			applied++
		}
	}
	return applied
}

// Seek sets the playback position, clamped to the animation range.
func (p *Player) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if p.Animation != nil && t > p.Animation.Duration {
		t = p.Animation.Duration
	}
	p.Time = t
}
