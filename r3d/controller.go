package r3d

import (
	"sync"

	"github.com/mogaika/model_viewer/math3d"
)

type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
	ActionFront
	ActionBack
	ActionLookUp
	ActionLookDown
	ActionLookLeft
	ActionLookRight
	ActionRotateLeft
	ActionRotateRight
	actionCount
)

var actionNames = [actionCount]string{
	"up", "down", "left", "right", "front", "back",
	"lookUp", "lookDown", "lookLeft", "lookRight",
	"rotateLeft", "rotateRight",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// KeyBindings maps browser KeyboardEvent.code values to actions.
type KeyBindings map[string]Action

func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		"ArrowUp":     ActionLookUp,
		"ArrowDown":   ActionLookDown,
		"ArrowLeft":   ActionLookLeft,
		"ArrowRight":  ActionLookRight,
		"ShiftLeft":   ActionFront,
		"ControlLeft": ActionBack,
		"KeyW":        ActionUp,
		"KeyS":        ActionDown,
		"KeyA":        ActionLeft,
		"KeyD":        ActionRight,
		"KeyQ":        ActionRotateLeft,
		"KeyE":        ActionRotateRight,
	}
}

// Input is the pressed state of every action. Key events may arrive from
// other goroutines while the frame loop reads the state.
type Input struct {
	Bindings KeyBindings

	mu      sync.Mutex
	pressed [actionCount]bool
}

func NewInput() *Input {
	return &Input{Bindings: DefaultKeyBindings()}
}

// SetKey records a key transition. Unbound codes return false.
func (in *Input) SetKey(code string, down bool) bool {
	action, ok := in.Bindings[code]
	if !ok {
		return false
	}
	in.Set(action, down)
	return true
}

func (in *Input) Set(action Action, down bool) {
	in.mu.Lock()
	in.pressed[action] = down
	in.mu.Unlock()
}

func (in *Input) Pressed(action Action) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pressed[action]
}

func (in *Input) snapshot() [actionCount]bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pressed
}

// Controller moves a TRS at fixed rates per second.
type Controller struct {
	MoveRate   float64
	RotateRate float64
}

func DefaultController() Controller {
	return Controller{MoveRate: 1, RotateRate: 1}
}

var (
	moveDirections = map[Action]math3d.Vector3{
		ActionUp:    math3d.Vector3Up,
		ActionDown:  math3d.Vector3Down,
		ActionLeft:  math3d.Vector3Left,
		ActionRight: math3d.Vector3Right,
		ActionFront: math3d.Vector3Front,
		ActionBack:  math3d.Vector3Back,
	}
	lookAxes = map[Action]math3d.Vector3{
		ActionLookUp:      math3d.Vector3Right,
		ActionLookDown:    math3d.Vector3Left,
		ActionLookLeft:    math3d.Vector3Up,
		ActionLookRight:   math3d.Vector3Down,
		ActionRotateLeft:  math3d.Vector3Front,
		ActionRotateRight: math3d.Vector3Back,
	}
)

// ProcessInput applies delta seconds of the pressed actions to t. Movement
// happens in the local frame of t; look rotations are applied around the
// world axes on top of the current rotation. Returns whether t changed.
func (c Controller) ProcessInput(delta float64, in *Input, t *TRS) bool {
	pressed := in.snapshot()
	changed := false

	for a := Action(0); a < actionCount; a++ {
		if !pressed[a] {
			continue
		}
		if dir, ok := moveDirections[a]; ok {
			t.Translation = t.Translation.Add(t.Rotation.Rotate(dir.MulScalar(c.MoveRate * delta)))
			changed = true
		}
	}
	for a := Action(0); a < actionCount; a++ {
		if !pressed[a] {
			continue
		}
		if axis, ok := lookAxes[a]; ok {
			// unit axis, cannot fail
			step, _ := math3d.QuatFromAxisAngle(axis, c.RotateRate*delta)
			t.Rotation = step.Mul(t.Rotation)
			changed = true
		}
	}

	if changed {
		// accumulated products drift away from unit length
		if q, err := t.Rotation.Normalize(); err == nil {
			t.Rotation = q
		}
	}
	return changed
}
