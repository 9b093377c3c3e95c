// Package viewer runs the frame loop. The scene tree, the camera and the
// animation player belong to the loop goroutine; everything else reaches
// them by queueing commands.
package viewer

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/anim"
	"github.com/mogaika/model_viewer/config"
	"github.com/mogaika/model_viewer/drawlist"
	"github.com/mogaika/model_viewer/loader"
	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
	"github.com/mogaika/model_viewer/status"
)

const commandQueueSize = 64

var ErrStopped = errors.New("viewer stopped")

type Viewer struct {
	cfg        *config.Config
	hub        *status.Hub
	backend    *drawlist.Backend
	camera     *r3d.Camera
	input      *r3d.Input
	controller r3d.Controller
	// orbit replaces free flight while set
	orbit *r3d.Orbit

	model  *loader.Model
	player *anim.Player
	mode   anim.Interpolation

	commands chan func()
	done     chan struct{}

	frameLock sync.RWMutex
	lastFrame *drawlist.Frame
}

// New sets up the camera and the backend from cfg. The model named by cfg
// is not loaded until Load is called.
func New(cfg *config.Config, hub *status.Hub) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := anim.ParseInterpolation(cfg.Animation.Interpolation)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		cfg:   cfg,
		hub:   hub,
		input: r3d.NewInput(),
		controller: r3d.Controller{
			MoveRate:   cfg.Controls.MoveRate,
			RotateRate: cfg.Controls.RotateRate,
		},
		mode:     mode,
		commands: make(chan func(), commandQueueSize),
		done:     make(chan struct{}),
	}
	v.backend = drawlist.New(cfg.Width, cfg.Height, v.flushFrame)
	v.camera = r3d.NewCamera(v.backend, lensFromConfig(&cfg.Camera))
	v.camera.Translation = vec3(cfg.Camera.Position)
	v.camera.Rotation = eulerDegrees(cfg.Camera.Rotation)
	if cfg.Camera.Orbit != nil {
		v.orbit = orbitFromConfig(cfg.Camera.Orbit)
		v.orbit.Apply(&v.camera.TRS)
	}
	v.backend.SetShading(cfg.Camera.Shading)

	if hub != nil {
		hub.OnEvent(v.HandleEvent)
	}
	return v, nil
}

func eulerDegrees(v [3]float64) math3d.Quat {
	return math3d.QuatFromEuler(math3d.Deg2Rad(vec3(v)))
}

func lensFromConfig(c *config.Camera) r3d.Lens {
	switch c.Projection {
	case config.ProjectionOrthographic:
		return &r3d.Orthographic{Size: c.Size, Near: c.Near, Far: c.Far}
	case config.ProjectionOblique:
		return &r3d.Oblique{
			Size:  c.Size,
			Near:  c.Near,
			Far:   c.Far,
			Theta: c.Theta * math.Pi / 180,
			Phi:   c.Phi * math.Pi / 180,
		}
	}
	return &r3d.Perspective{Fov: c.Fov * math.Pi / 180, Near: c.Near, Far: c.Far}
}

func orbitFromConfig(o *config.Orbit) *r3d.Orbit {
	return r3d.NewOrbit(vec3(o.Target), o.Distance, o.Pitch*math.Pi/180, o.Yaw*math.Pi/180)
}

func (v *Viewer) flushFrame(f *drawlist.Frame) {
	v.frameLock.Lock()
	v.lastFrame = f
	v.frameLock.Unlock()
	if v.hub != nil {
		if err := v.hub.Frame(f); err != nil {
			log.Printf("[viewer] frame %d broadcast: %v", f.Seq, err)
		}
	}
}

// LastFrame returns the most recent flushed frame, nil before the first
// one.
func (v *Viewer) LastFrame() *drawlist.Frame {
	v.frameLock.RLock()
	defer v.frameLock.RUnlock()
	return v.lastFrame
}

func (v *Viewer) Backend() *drawlist.Backend { return v.backend }

func (v *Viewer) Input() *r3d.Input { return v.input }

// Do queues fn to run on the loop goroutine at the start of the next tick.
// It blocks only while the queue is full.
func (v *Viewer) Do(fn func()) {
	select {
	case v.commands <- fn:
	case <-v.done:
	}
}

// Call runs fn on the loop goroutine and waits for its result.
func (v *Viewer) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	select {
	case v.commands <- func() { result <- fn() }:
	case <-v.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-v.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// callValue is Call for functions with a result. The value is handed over
// through a channel, so a caller that gave up on ctx never reads memory
// the loop goroutine still writes.
func callValue[T any](ctx context.Context, v *Viewer, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	results := make(chan result, 1)
	err := v.Call(ctx, func() error {
		value, err := fn()
		results <- result{value, err}
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	r := <-results
	return r.value, r.err
}

func (v *Viewer) drain() {
	for {
		select {
		case fn := <-v.commands:
			fn()
		default:
			return
		}
	}
}

// Tick runs one frame: queued commands, camera input, animation, render.
// A frame that fails to render is dropped.
func (v *Viewer) Tick(delta float64) {
	v.drain()

	if v.orbit != nil {
		v.orbit.ProcessInput(delta, v.input, v.controller)
		v.orbit.Apply(&v.camera.TRS)
	} else {
		v.controller.ProcessInput(delta, v.input, &v.camera.TRS)
	}

	var renderables []r3d.Renderable
	if v.model != nil {
		if v.player != nil {
			v.player.Advance(delta)
			v.player.Apply(v.model.Root)
		}
		renderables = append(renderables, v.model.Root)
	}

	if err := v.camera.Render(renderables...); err != nil {
		v.backend.Abort()
		log.Printf("[viewer] frame dropped: %v", err)
	}
}

// Run ticks at the configured rate until ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	defer close(v.done)

	ticker := time.NewTicker(time.Second / time.Duration(v.cfg.FPS))
	defer ticker.Stop()

	log.Printf("[viewer] Running at %d fps", v.cfg.FPS)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			v.Tick(now.Sub(last).Seconds())
			last = now
		}
	}
}

// HandleEvent applies a browser event. It is safe to call from any
// goroutine.
func (v *Viewer) HandleEvent(ev *status.Event) {
	switch ev.Type {
	case "resize":
		if ev.Width > 0 && ev.Height > 0 {
			v.backend.Resize(ev.Width, ev.Height)
		}
	case "key":
		v.input.SetKey(ev.Code, ev.Down)
	default:
		log.Printf("[viewer] unknown event %q", ev.Type)
	}
}
