package viewer

import (
	"bytes"
	"context"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/anim"
	"github.com/mogaika/model_viewer/config"
	"github.com/mogaika/model_viewer/loader"
	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnknownAnimation = errors.New("unknown animation")
)

func vec3(a [3]float64) math3d.Vector3 { return math3d.Vector3{X: a[0], Y: a[1], Z: a[2]} }

func degrees(q math3d.Quat) [3]float64 { return math3d.Rad2Deg(q.Euler()).Array() }

type MeshView struct {
	Handle   r3d.MeshHandle `json:"handle"`
	Vertices int            `json:"vertices"`
	Indexed  bool           `json:"indexed"`
	Material r3d.Material   `json:"material"`
}

// NodeView is a node as the client sees it. ID is the pre-order index
// inside the model tree and addresses the node in updates.
type NodeView struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Translation [3]float64  `json:"translation"`
	Rotation    [3]float64  `json:"rotation"`
	Quat        [4]float64  `json:"quat"`
	Scale       [3]float64  `json:"scale"`
	World       [16]float32 `json:"world"`
	Meshes      []MeshView  `json:"meshes,omitempty"`
	Children    []*NodeView `json:"children,omitempty"`
}

func (v *Viewer) nodeView(n *r3d.Node, parent math3d.Transform, id *int) *NodeView {
	world := parent.Mul(n.Transform())
	nv := &NodeView{
		ID:          *id,
		Name:        n.Name,
		Translation: n.Translation.Array(),
		Rotation:    degrees(n.Rotation),
		Quat:        [4]float64{n.Rotation.W, n.Rotation.X, n.Rotation.Y, n.Rotation.Z},
		Scale:       n.Scale.Array(),
		World:       world.Matrix4x4(),
	}
	*id++

	for _, m := range n.Meshes {
		mv := MeshView{Handle: m.Handle, Material: r3d.DefaultMaterial}
		if m.Material != nil {
			mv.Material = *m.Material
		}
		if vd, ok := v.backend.VertexData(m.Handle); ok {
			mv.Vertices = vd.VertexCount()
			mv.Indexed = vd.IsIndexed()
		}
		nv.Meshes = append(nv.Meshes, mv)
	}
	for _, child := range n.Children() {
		nv.Children = append(nv.Children, v.nodeView(child, world, id))
	}
	return nv
}

// SceneView builds the tree snapshot. Must run on the loop goroutine, or
// before Run.
func (v *Viewer) SceneView() (*NodeView, error) {
	if v.model == nil {
		return nil, ErrNoModel
	}
	id := 0
	return v.nodeView(v.model.Root, math3d.TransformIdentity, &id), nil
}

// Scene snapshots the model tree.
func (v *Viewer) Scene(ctx context.Context) (*NodeView, error) {
	return callValue(ctx, v, v.SceneView)
}

// NodeUpdate sets the given local components of a node. Rotation is Euler
// degrees.
type NodeUpdate struct {
	Translation *[3]float64 `json:"translation"`
	Rotation    *[3]float64 `json:"rotation"`
	Scale       *[3]float64 `json:"scale"`
}

func (v *Viewer) updateNode(id int, u *NodeUpdate) error {
	if v.model == nil {
		return ErrNoModel
	}
	n := v.model.Root.At(id)
	if n == nil {
		return errors.Wrapf(r3d.ErrIndexOutOfRange, "node %d", id)
	}
	if u.Translation != nil {
		n.Translation = vec3(*u.Translation)
	}
	if u.Rotation != nil {
		n.Rotation = eulerDegrees(*u.Rotation)
	}
	if u.Scale != nil {
		n.Scale = vec3(*u.Scale)
	}
	return nil
}

func (v *Viewer) UpdateNode(ctx context.Context, id int, u *NodeUpdate) error {
	return v.Call(ctx, func() error { return v.updateNode(id, u) })
}

type CameraView struct {
	config.Camera
	ViewProjection [16]float32 `json:"view_projection"`
}

// CameraUpdate switches the lens or moves the camera. Angles are degrees.
// Orbit puts the camera on an orbit; Position or Rotation without Orbit
// return it to free flight.
type CameraUpdate struct {
	Projection *string       `json:"projection"`
	Fov        *float64      `json:"fov"`
	Near       *float64      `json:"near"`
	Far        *float64      `json:"far"`
	Size       *float64      `json:"size"`
	Theta      *float64      `json:"theta"`
	Phi        *float64      `json:"phi"`
	Position   *[3]float64   `json:"position"`
	Rotation   *[3]float64   `json:"rotation"`
	Orbit      *config.Orbit `json:"orbit"`
	Shading    *bool         `json:"shading"`
}

func (v *Viewer) cameraConfig() config.Camera {
	c := config.Camera{
		Fov:      v.cfg.Camera.Fov,
		Size:     v.cfg.Camera.Size,
		Theta:    v.cfg.Camera.Theta,
		Phi:      v.cfg.Camera.Phi,
		Position: v.camera.Translation.Array(),
		Rotation: degrees(v.camera.Rotation),
		Shading:  v.backend.Shading(),
	}
	switch lens := v.camera.Lens.(type) {
	case *r3d.Perspective:
		c.Projection = config.ProjectionPerspective
		c.Fov = lens.Fov * 180 / math.Pi
		c.Near, c.Far = lens.Near, lens.Far
	case *r3d.Orthographic:
		c.Projection = config.ProjectionOrthographic
		c.Size = lens.Size
		c.Near, c.Far = lens.Near, lens.Far
	case *r3d.Oblique:
		c.Projection = config.ProjectionOblique
		c.Size = lens.Size
		c.Near, c.Far = lens.Near, lens.Far
		c.Theta = lens.Theta * 180 / math.Pi
		c.Phi = lens.Phi * 180 / math.Pi
	}
	if o := v.orbit; o != nil {
		c.Orbit = &config.Orbit{
			Target:   o.Target.Array(),
			Distance: o.Distance,
			Pitch:    o.Pitch * 180 / math.Pi,
			Yaw:      o.Yaw * 180 / math.Pi,
		}
	}
	return c
}

func (v *Viewer) cameraView() (*CameraView, error) {
	view := &CameraView{Camera: v.cameraConfig()}
	width, height := v.backend.Size()
	vp, err := v.camera.ViewProjection(width, height)
	if err != nil {
		return nil, err
	}
	view.ViewProjection = vp.Matrix4x4()
	return view, nil
}

func (v *Viewer) Camera(ctx context.Context) (*CameraView, error) {
	return callValue(ctx, v, v.cameraView)
}

func (v *Viewer) updateCamera(u *CameraUpdate) error {
	c := v.cameraConfig()
	if u.Projection != nil {
		c.Projection = *u.Projection
	}
	for _, f := range []struct {
		dst *float64
		src *float64
	}{
		{&c.Fov, u.Fov}, {&c.Near, u.Near}, {&c.Far, u.Far}, {&c.Size, u.Size},
		{&c.Theta, u.Theta}, {&c.Phi, u.Phi},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if u.Position != nil {
		c.Position = *u.Position
	}
	if u.Position != nil || u.Rotation != nil {
		c.Orbit = nil
	}
	if u.Orbit != nil {
		o := *u.Orbit
		c.Orbit = &o
	}
	if u.Shading != nil {
		c.Shading = *u.Shading
	}

	check := *v.cfg
	check.Camera = c
	if err := check.Validate(); err != nil {
		return errors.Wrapf(ErrBadRequest, "%v", err)
	}

	v.camera.Lens = lensFromConfig(&c)
	v.backend.SetShading(c.Shading)
	if c.Orbit != nil {
		v.orbit = orbitFromConfig(c.Orbit)
		v.orbit.Apply(&v.camera.TRS)
		return nil
	}
	v.orbit = nil
	v.camera.Translation = vec3(c.Position)
	if u.Rotation != nil {
		v.camera.Rotation = eulerDegrees(*u.Rotation)
	}
	return nil
}

func (v *Viewer) UpdateCamera(ctx context.Context, u *CameraUpdate) error {
	return v.Call(ctx, func() error { return v.updateCamera(u) })
}

type AnimationView struct {
	Name      string  `json:"name"`
	Duration  float64 `json:"duration"`
	Keyframes int     `json:"keyframes"`
}

type AnimationsView struct {
	Animations    []AnimationView `json:"animations"`
	Current       string          `json:"current"`
	Playing       bool            `json:"playing"`
	Time          float64         `json:"time"`
	Interpolation string          `json:"interpolation"`
}

func (v *Viewer) animationsView() (*AnimationsView, error) {
	if v.model == nil {
		return nil, ErrNoModel
	}
	view := &AnimationsView{
		Animations:    make([]AnimationView, 0, len(v.model.Animations)),
		Interpolation: v.mode.String(),
	}
	for _, a := range v.model.Animations {
		view.Animations = append(view.Animations, AnimationView{
			Name:      a.Name,
			Duration:  a.Duration,
			Keyframes: len(a.Keyframes),
		})
	}
	if v.player != nil {
		view.Current = v.player.Animation.Name
		view.Playing = v.player.Playing
		view.Time = v.player.Time
	}
	return view, nil
}

func (v *Viewer) Animations(ctx context.Context) (*AnimationsView, error) {
	return callValue(ctx, v, v.animationsView)
}

// AnimationUpdate selects, starts, stops or seeks the playback.
type AnimationUpdate struct {
	Name          *string  `json:"name"`
	Playing       *bool    `json:"playing"`
	Time          *float64 `json:"time"`
	Interpolation *string  `json:"interpolation"`
}

func (v *Viewer) updateAnimation(u *AnimationUpdate) error {
	if v.model == nil {
		return ErrNoModel
	}

	mode := v.mode
	if u.Interpolation != nil {
		var err error
		if mode, err = anim.ParseInterpolation(*u.Interpolation); err != nil {
			return errors.Wrapf(ErrBadRequest, "%v", err)
		}
	}

	player := v.player
	if u.Name != nil {
		a := v.model.Animation(*u.Name)
		if a == nil {
			return errors.Wrapf(ErrUnknownAnimation, "%q", *u.Name)
		}
		if player == nil || player.Animation != a {
			playing := player != nil && player.Playing
			player = anim.NewPlayer(a, mode)
			player.Playing = playing
		}
	}
	if player == nil && (u.Playing != nil || u.Time != nil) {
		return errors.Wrapf(ErrUnknownAnimation, "model has no animations")
	}

	v.mode = mode
	v.player = player
	if player == nil {
		return nil
	}
	player.Mode = mode
	if u.Playing != nil {
		player.Playing = *u.Playing
	}
	if u.Time != nil {
		player.Seek(*u.Time)
		player.Apply(v.model.Root)
	}
	return nil
}

func (v *Viewer) UpdateAnimation(ctx context.Context, u *AnimationUpdate) error {
	return v.Call(ctx, func() error { return v.updateAnimation(u) })
}

func (v *Viewer) ReloadModel(ctx context.Context) error {
	return v.Call(ctx, v.Reload)
}

// ExportGLB writes the current model, with its current pose, as binary
// glTF.
func (v *Viewer) ExportGLB(ctx context.Context, w io.Writer) error {
	data, err := callValue(ctx, v, func() ([]byte, error) {
		if v.model == nil {
			return nil, ErrNoModel
		}
		var buf bytes.Buffer
		if err := loader.ExportGLB(&buf, v.model.Root, v.backend); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
