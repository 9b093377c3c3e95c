package viewer

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/anim"
	"github.com/mogaika/model_viewer/loader"
	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/r3d"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 100 * time.Millisecond

var ErrNoModel = errors.New("no model loaded")

func (v *Viewer) infof(format string, a ...interface{}) {
	log.Printf("[viewer] "+format, a...)
	if v.hub != nil {
		v.hub.Info(format, a...)
	}
}

func (v *Viewer) errorf(format string, a ...interface{}) {
	log.Printf("[viewer] "+format, a...)
	if v.hub != nil {
		v.hub.Error(format, a...)
	}
}

func meshHandles(root *r3d.Node) []r3d.MeshHandle {
	var handles []r3d.MeshHandle
	root.Walk(func(n *r3d.Node, _ math3d.Transform) error {
		for _, m := range n.Meshes {
			handles = append(handles, m.Handle)
		}
		return nil
	})
	return handles
}

// Load replaces the current model. On failure the previous model stays.
// Must run on the loop goroutine, or before Run.
func (v *Viewer) Load(path string) error {
	m, err := loader.Load(v.backend, path)
	if err != nil {
		v.errorf("Failed to load %q: %v", path, err)
		return err
	}

	current := v.cfg.Animation.Name
	playing := v.cfg.Animation.Play
	if v.model != nil {
		v.backend.Release(meshHandles(v.model.Root)...)
		if v.player != nil && v.player.Animation != nil {
			current = v.player.Animation.Name
			playing = v.player.Playing
		}
	}

	v.model = m
	v.player = nil
	if a := m.Animation(current); a != nil {
		v.player = anim.NewPlayer(a, v.mode)
	} else if len(m.Animations) != 0 {
		v.player = anim.NewPlayer(m.Animations[0], v.mode)
	}
	if v.player != nil {
		v.player.Playing = playing
	}

	v.infof("Loaded %q: %d nodes, %d animations", path, m.Root.Count(), len(m.Animations))
	return nil
}

// Reload loads the current model file again.
func (v *Viewer) Reload() error {
	if v.model == nil {
		return ErrNoModel
	}
	return v.Load(v.model.Source)
}

// Watch queues a reload whenever the file at path changes, until ctx is
// cancelled. The directory is watched so editors that replace the file on
// save are followed.
func (v *Viewer) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "Failed to create watcher")
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "Failed to watch %q", path)
	}
	log.Printf("[viewer] Watching %q", path)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fire = time.After(reloadDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[viewer] watch error: %v", err)
		case <-fire:
			fire = nil
			v.Do(func() {
				if err := v.Load(path); err != nil {
					log.Printf("[viewer] reload: %v", err)
				}
			})
		}
	}
}
