package web

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/model_viewer/r3d"
	"github.com/mogaika/model_viewer/utils"
	"github.com/mogaika/model_viewer/viewer"
	"github.com/mogaika/model_viewer/webutils"
)

func errorCode(err error) int {
	switch errors.Cause(err) {
	case viewer.ErrNoModel, viewer.ErrUnknownAnimation, r3d.ErrIndexOutOfRange:
		return http.StatusNotFound
	case viewer.ErrBadRequest:
		return http.StatusBadRequest
	case viewer.ErrStopped, context.Canceled, context.DeadlineExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	webutils.WriteErrorCode(w, errorCode(err), err)
}

func varInt(r *http.Request, name string) (int, error) {
	param := mux.Vars(r)[name]
	v, err := strconv.Atoi(param)
	if err != nil {
		return 0, errors.Wrapf(viewer.ErrBadRequest, "param '%s' is not integer", param)
	}
	return v, nil
}

func (s *Server) HandlerJsonScene(w http.ResponseWriter, r *http.Request) {
	if scene, err := s.Viewer.Scene(r.Context()); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, scene)
	}
}

func (s *Server) HandlerJsonCamera(w http.ResponseWriter, r *http.Request) {
	if camera, err := s.Viewer.Camera(r.Context()); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, camera)
	}
}

func (s *Server) HandlerJsonFrame(w http.ResponseWriter, r *http.Request) {
	if frame := s.Viewer.LastFrame(); frame == nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.New("no frame rendered yet"))
	} else {
		webutils.WriteJson(w, frame)
	}
}

func (s *Server) HandlerJsonMesh(w http.ResponseWriter, r *http.Request) {
	id, err := varInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	vd, ok := s.Viewer.Backend().VertexData(r3d.MeshHandle(id))
	if !ok {
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("mesh %d not found", id))
		return
	}
	webutils.WriteJson(w, vd)
}

func (s *Server) HandlerJsonAnimations(w http.ResponseWriter, r *http.Request) {
	if animations, err := s.Viewer.Animations(r.Context()); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, animations)
	}
}

func (s *Server) HandlerActionNode(w http.ResponseWriter, r *http.Request) {
	id, err := varInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var u viewer.NodeUpdate
	if err := webutils.ReadJson(r, &u); err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Viewer.UpdateNode(r.Context(), id, &u); err != nil {
		writeError(w, err)
		return
	}
	s.HandlerJsonScene(w, r)
}

func (s *Server) HandlerActionCamera(w http.ResponseWriter, r *http.Request) {
	var u viewer.CameraUpdate
	if err := webutils.ReadJson(r, &u); err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Viewer.UpdateCamera(r.Context(), &u); err != nil {
		writeError(w, err)
		return
	}
	s.HandlerJsonCamera(w, r)
}

func (s *Server) HandlerActionAnimation(w http.ResponseWriter, r *http.Request) {
	var u viewer.AnimationUpdate
	if err := webutils.ReadJson(r, &u); err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Viewer.UpdateAnimation(r.Context(), &u); err != nil {
		writeError(w, err)
		return
	}
	s.HandlerJsonAnimations(w, r)
}

func (s *Server) HandlerActionReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Viewer.ReloadModel(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.HandlerJsonScene(w, r)
}

func (s *Server) HandlerDumpScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.Viewer.Scene(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDump(scene)))
}

func (s *Server) HandlerExportGLB(w http.ResponseWriter, r *http.Request) {
	dw := &deferredWriter{w: w, name: "scene.glb"}
	if err := s.Viewer.ExportGLB(r.Context(), dw); err != nil {
		if dw.started {
			log.Printf("[web] export: %v", err)
		} else {
			writeError(w, err)
		}
	}
}

func (s *Server) HandlerExportJson(w http.ResponseWriter, r *http.Request) {
	if scene, err := s.Viewer.Scene(r.Context()); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJsonFile(w, scene, "scene")
	}
}

// deferredWriter sets the attachment headers on the first write, so an
// export that fails early can still answer with an error.
type deferredWriter struct {
	w       http.ResponseWriter
	name    string
	started bool
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	if !d.started {
		d.started = true
		webutils.WriteFileHeaders(d.w, d.name)
	}
	return d.w.Write(p)
}

func (s *Server) HandlerWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		return
	}
	s.Hub.Serve(conn)
}
