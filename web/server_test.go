package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/model_viewer/config"
	"github.com/mogaika/model_viewer/drawlist"
	"github.com/mogaika/model_viewer/loader"
	"github.com/mogaika/model_viewer/status"
	"github.com/mogaika/model_viewer/viewer"
)

const model = `{
	"components": [{
		"id": "body",
		"children": [{"id": "arm", "coordinates": [5, 0, 0]}]
	}],
	"animations": [{
		"name": "wave",
		"duration": 1,
		"keyframes": [{"time": 0, "transforms": [{"component": "arm", "rotation": [0, 30, 0]}]}]
	}]
}`

type testEnv struct {
	srv *httptest.Server
	hub *status.Hub
	v   *viewer.Viewer
}

func newEnv(t *testing.T, load bool) *testEnv {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "index.html"), []byte("<html></html>"), 0644))

	cfg := config.Default()
	cfg.FPS = 200
	cfg.Model = filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(cfg.Model, []byte(model), 0644))

	hub := status.NewHub()
	v, err := viewer.New(cfg, hub)
	require.NoError(t, err)
	if load {
		require.NoError(t, v.Load(cfg.Model))
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		v.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(NewRouter(v, hub, dir))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
		cancel()
		<-stopped
	})
	return &testEnv{srv: srv, hub: hub, v: v}
}

func (e *testEnv) get(t *testing.T, path string) (int, []byte) {
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (e *testEnv) post(t *testing.T, path, data string) (int, []byte) {
	resp, err := http.Post(e.srv.URL+path, "application/json", strings.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestJsonScene(t *testing.T) {
	e := newEnv(t, true)
	code, body := e.get(t, "/json/scene")
	require.Equal(t, http.StatusOK, code)

	var scene viewer.NodeView
	require.NoError(t, json.Unmarshal(body, &scene))
	assert.Equal(t, "body", scene.Name)
	require.Len(t, scene.Children, 1)
	assert.Equal(t, 1, scene.Children[0].ID)
	assert.Equal(t, [3]float64{5, 0, 0}, scene.Children[0].Translation)
}

func TestNoModel(t *testing.T) {
	e := newEnv(t, false)
	code, body := e.get(t, "/json/scene")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error": "no model loaded"}`, string(body))
}

func TestJsonMesh(t *testing.T) {
	e := newEnv(t, true)
	scene, err := e.v.Scene(context.Background())
	require.NoError(t, err)

	handle := scene.Meshes[0].Handle
	code, body := e.get(t, "/json/mesh/"+strconv.Itoa(int(handle)))
	require.Equal(t, http.StatusOK, code)
	var vd struct {
		Position []float32 `json:"position"`
	}
	require.NoError(t, json.Unmarshal(body, &vd))
	assert.Len(t, vd.Position, 36*3)

	code, _ = e.get(t, "/json/mesh/999")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestActionNode(t *testing.T) {
	e := newEnv(t, true)
	code, body := e.post(t, "/action/node/0", `{"translation": [1, 2, 3]}`)
	require.Equal(t, http.StatusOK, code, string(body))

	var scene viewer.NodeView
	require.NoError(t, json.Unmarshal(body, &scene))
	assert.Equal(t, [3]float64{1, 2, 3}, scene.Translation)

	code, _ = e.post(t, "/action/node/9", `{}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.post(t, "/action/node/0", `{"translate": [1, 2, 3]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestActionCamera(t *testing.T) {
	e := newEnv(t, true)
	code, body := e.post(t, "/action/camera", `{"projection": "orthographic", "size": 4}`)
	require.Equal(t, http.StatusOK, code, string(body))

	var camera viewer.CameraView
	require.NoError(t, json.Unmarshal(body, &camera))
	assert.Equal(t, config.ProjectionOrthographic, camera.Projection)
	assert.Equal(t, 4.0, camera.Size)

	code, _ = e.post(t, "/action/camera", `{"projection": "fisheye"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.post(t, "/action/camera",
		`{"projection": "oblique", "shading": false, "orbit": {"target": [0, 0, 0], "distance": 10, "pitch": 0, "yaw": 0}}`)
	require.Equal(t, http.StatusOK, code, string(body))
	camera = viewer.CameraView{}
	require.NoError(t, json.Unmarshal(body, &camera))
	assert.Equal(t, config.ProjectionOblique, camera.Projection)
	assert.False(t, camera.Shading)
	require.NotNil(t, camera.Orbit)
	assert.Equal(t, 10.0, camera.Orbit.Distance)
	assert.InDeltaSlice(t, []float64{0, 0, 10}, camera.Position[:], 1e-9)
}

func TestActionAnimation(t *testing.T) {
	e := newEnv(t, true)
	code, body := e.post(t, "/action/animation", `{"playing": false, "time": 0.5}`)
	require.Equal(t, http.StatusOK, code, string(body))

	var a viewer.AnimationsView
	require.NoError(t, json.Unmarshal(body, &a))
	assert.Equal(t, "wave", a.Current)
	assert.False(t, a.Playing)
	assert.Equal(t, 0.5, a.Time)

	code, _ = e.post(t, "/action/animation", `{"name": "dance"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = e.get(t, "/json/animations")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"name":"wave"`)
}

func TestActionReload(t *testing.T) {
	e := newEnv(t, true)
	code, body := e.post(t, "/action/reload", ``)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Contains(t, string(body), `"name":"body"`)
}

func TestDumpScene(t *testing.T) {
	e := newEnv(t, true)
	code, body := e.get(t, "/dump/scene")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"arm"`)
}

func TestExport(t *testing.T) {
	e := newEnv(t, true)
	resp, err := http.Get(e.srv.URL + "/export/scene.glb")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="scene.glb"`, resp.Header.Get("Content-Disposition"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m, err := loader.DecodeGLTF(drawlist.New(1, 1, nil), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "body", m.Root.Name)

	code, body := e.get(t, "/export/scene.json")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"name": "arm"`)
}

func TestExportWithoutModel(t *testing.T) {
	e := newEnv(t, false)
	resp, err := http.Get(e.srv.URL + "/export/scene.glb")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Disposition"))
}

func TestJsonFrameAndStatic(t *testing.T) {
	e := newEnv(t, true)
	require.Eventually(t, func() bool {
		code, _ := e.get(t, "/json/frame")
		return code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	code, body := e.get(t, "/")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<html></html>", string(body))
}

func TestWebsocket(t *testing.T) {
	e := newEnv(t, true)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(status.Event{Type: "resize", Width: 300, Height: 100}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var env struct {
			Type  string          `json:"type"`
			Frame *drawlist.Frame `json:"frame"`
		}
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == "frame" && env.Frame.Width == 300 {
			assert.Equal(t, 100, env.Frame.Height)
			assert.Len(t, env.Frame.Calls, 2)
			return
		}
	}
}
