package webutils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJson(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJson(w, map[string]int{"a": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a": 1}`, w.Body.String())
}

func TestWriteJsonUnsupported(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJson(w, make(chan int))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestWriteErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorCode(w, http.StatusNotFound, errors.New("no such node"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "no such node"}`, w.Body.String())
}

func TestWriteJsonFile(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJsonFile(w, []int{1, 2}, "scene")
	assert.Equal(t, `attachment; filename="scene.json"`, w.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `[1, 2]`, w.Body.String())
}

func TestReadJson(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name": "arm"}`))
	require.NoError(t, ReadJson(r, &v))
	assert.Equal(t, "arm", v.Name)

	r = httptest.NewRequest("GET", "/", strings.NewReader(`{}`))
	assert.Error(t, ReadJson(r, &v))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"nmae": "arm"}`))
	assert.Error(t, ReadJson(r, &v))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	assert.Error(t, ReadJson(r, &v))
}
