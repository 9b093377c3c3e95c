package anim

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/math3d"
)

var ErrInvalidAnimation = errors.New("invalid animation")

// Target is the rotation of one named node, in Euler degrees.
type Target struct {
	Node     string         `json:"node"`
	Rotation math3d.Vector3 `json:"rotation"`
}

type Keyframe struct {
	Time    float64  `json:"time"`
	Targets []Target `json:"targets"`
}

func (k *Keyframe) Find(node string) *Target {
	for i := range k.Targets {
		if k.Targets[i].Node == node {
			return &k.Targets[i]
		}
	}
	return nil
}

type Animation struct {
	Name      string     `json:"name"`
	Duration  float64    `json:"duration"`
	Keyframes []Keyframe `json:"keyframes"`
}

// Validate rejects negative or non finite times and sorts the keyframes.
func (a *Animation) Validate() error {
	if a.Duration < 0 || math.IsNaN(a.Duration) || math.IsInf(a.Duration, 0) {
		return errors.Wrapf(ErrInvalidAnimation, "%q: duration %v", a.Name, a.Duration)
	}
	for i, k := range a.Keyframes {
		if k.Time < 0 || math.IsNaN(k.Time) || math.IsInf(k.Time, 0) {
			return errors.Wrapf(ErrInvalidAnimation, "%q: keyframe %d time %v", a.Name, i, k.Time)
		}
	}
	sort.SliceStable(a.Keyframes, func(i, j int) bool {
		return a.Keyframes[i].Time < a.Keyframes[j].Time
	})
	return nil
}

// Lookup returns the keyframe with the largest time not after t and the
// one with the smallest time after t. Either may be nil.
func (a *Animation) Lookup(t float64) (prev, next *Keyframe) {
	for i := range a.Keyframes {
		k := &a.Keyframes[i]
		if k.Time <= t {
			if prev == nil || k.Time >= prev.Time {
				prev = k
			}
		} else if next == nil || k.Time < next.Time {
			next = k
		}
	}
	return prev, next
}

// LerpEuler interpolates componentwise. A nil side holds the other one.
func LerpEuler(prev, next *math3d.Vector3, prevTime, nextTime, t float64) math3d.Vector3 {
	switch {
	case prev == nil && next == nil:
		return math3d.Vector3Zero
	case prev == nil:
		return *next
	case next == nil:
		return *prev
	}
	f := (t - prevTime) / (nextTime - prevTime)
	return prev.MulScalar(1 - f).Add(next.MulScalar(f))
}

// SlerpEuler interpolates the rotations given in Euler degrees along the
// shortest arc.
func SlerpEuler(prev, next *math3d.Vector3, prevTime, nextTime, t float64) math3d.Quat {
	switch {
	case prev == nil && next == nil:
		return math3d.QuatIdentity
	case prev == nil:
		return math3d.QuatFromEuler(math3d.Deg2Rad(*next))
	case next == nil:
		return math3d.QuatFromEuler(math3d.Deg2Rad(*prev))
	}
	f := (t - prevTime) / (nextTime - prevTime)
	a := math3d.QuatFromEuler(math3d.Deg2Rad(*prev))
	b := math3d.QuatFromEuler(math3d.Deg2Rad(*next))
	return a.Slerp(b, f)
}
