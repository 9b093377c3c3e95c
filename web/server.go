package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mogaika/model_viewer/status"
	"github.com/mogaika/model_viewer/viewer"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Viewer   *viewer.Viewer
	Hub      *status.Hub
	upgrader websocket.Upgrader
}

// NewRouter wires the api under /json, /action, /dump, /export and /ws.
// Everything else is served from webPath/data.
func NewRouter(v *viewer.Viewer, hub *status.Hub, webPath string) *mux.Router {
	s := &Server{Viewer: v, Hub: hub}

	r := mux.NewRouter()
	r.HandleFunc("/json/scene", s.HandlerJsonScene).Methods("GET")
	r.HandleFunc("/json/camera", s.HandlerJsonCamera).Methods("GET")
	r.HandleFunc("/json/frame", s.HandlerJsonFrame).Methods("GET")
	r.HandleFunc("/json/mesh/{id:[0-9]+}", s.HandlerJsonMesh).Methods("GET")
	r.HandleFunc("/json/animations", s.HandlerJsonAnimations).Methods("GET")
	r.HandleFunc("/action/node/{id:[0-9]+}", s.HandlerActionNode).Methods("POST")
	r.HandleFunc("/action/camera", s.HandlerActionCamera).Methods("POST")
	r.HandleFunc("/action/animation", s.HandlerActionAnimation).Methods("POST")
	r.HandleFunc("/action/reload", s.HandlerActionReload).Methods("POST")
	r.HandleFunc("/dump/scene", s.HandlerDumpScene).Methods("GET")
	r.HandleFunc("/export/scene.glb", s.HandlerExportGLB).Methods("GET")
	r.HandleFunc("/export/scene.json", s.HandlerExportJson).Methods("GET")
	r.HandleFunc("/ws", s.HandlerWebsocket)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	return r
}

// StartServer serves h on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string, h http.Handler) error {
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.LoggingHandler(os.Stdout, h)

	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[web] shutdown: %v", err)
		}
	}()

	log.Printf("[web] Starting server %v", addr)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
