package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/famtree/pkg/errors"
	famio "github.com/matzehuels/famtree/pkg/io"
	"github.com/matzehuels/famtree/pkg/session"
	"github.com/matzehuels/famtree/pkg/storage"
	"github.com/matzehuels/famtree/pkg/tree"
)

type testServer struct {
	t    *testing.T
	h    http.Handler
	sess *session.Session
	path string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "family.json")
	repo, err := storage.Open(path)
	require.NoError(t, err)
	sess := session.New(tree.New(), repo)
	t.Cleanup(func() { _ = sess.Close() })
	return &testServer{t: t, h: New(sess).Handler(), sess: sess, path: path}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createPerson(name string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/persons", map[string]any{"name": name})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp idResponse
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return string(body.Code)
}

func TestHealthReportsBuild(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
	assert.Contains(t, body, "commit")
}

func TestPersonLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createPerson("Taro")

	rec := ts.do(http.MethodGet, "/persons/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p famio.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Taro", p.Name)
	assert.Equal(t, "Unknown", p.Gender)

	rec = ts.do(http.MethodPatch, "/persons/"+id, map[string]any{"gender": "male", "death": "2001"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/persons?q=taro", nil)
	var list []famio.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Male", list[0].Gender)
	assert.True(t, list[0].Deceased, "death date implies deceased")

	rec = ts.do(http.MethodDelete, "/persons/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/persons/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND_PERSON", errorCode(t, rec))
}

func TestGenderRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		gender string
		want   string
		status int
	}{
		{"Male", "Male", http.StatusCreated},
		{"female", "Female", http.StatusCreated},
		{"UNKNOWN", "Unknown", http.StatusCreated},
		{"f", "Female", http.StatusCreated},
		{"robot", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := ts.do(http.MethodPost, "/persons", map[string]any{"name": "P " + tt.gender, "gender": tt.gender})
		require.Equal(t, tt.status, rec.Code, rec.Body.String())
		if tt.status != http.StatusCreated {
			continue
		}
		var created idResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = ts.do(http.MethodGet, "/persons/"+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var p famio.Person
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, tt.want, p.Gender, tt.gender)

		// The written form is accepted back unchanged.
		rec = ts.do(http.MethodPatch, "/persons/"+p.ID, map[string]any{"gender": p.Gender})
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	}
}

func TestPersonPhotoFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/persons", map[string]any{
		"name": "Hana", "photo_path": "photos/hana.png", "display_mode": "nameandphoto", "photo_scale": 1.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created idResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	get := func() famio.Person {
		t.Helper()
		rec := ts.do(http.MethodGet, "/persons/"+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var p famio.Person
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		return p
	}
	p := get()
	assert.Equal(t, "photos/hana.png", p.PhotoPath)
	assert.Equal(t, "NameAndPhoto", p.DisplayMode)
	require.NotNil(t, p.PhotoScale)
	assert.Equal(t, 1.5, *p.PhotoScale)

	rec = ts.do(http.MethodPatch, "/persons/"+created.ID, map[string]any{"display_mode": "NameOnly"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	p = get()
	assert.Empty(t, p.DisplayMode)
	assert.Equal(t, "photos/hana.png", p.PhotoPath)

	for _, body := range []map[string]any{
		{"name": "X", "display_mode": "portrait"},
		{"name": "X", "photo_scale": 20},
	} {
		rec := ts.do(http.MethodPost, "/persons", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createPerson("A")
	b := ts.createPerson("B")
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/edges", map[string]any{"parent": a, "child": b}).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"cycle", http.MethodPost, "/edges", map[string]any{"parent": b, "child": a}, http.StatusConflict, "STRUCTURAL_CYCLE"},
		{"self parent", http.MethodPost, "/edges", map[string]any{"parent": a, "child": a}, http.StatusConflict, "STRUCTURAL_SELF_PARENT"},
		{"duplicate edge", http.MethodPost, "/edges", map[string]any{"parent": a, "child": b}, http.StatusConflict, "STRUCTURAL_DUPLICATE_EDGE"},
		{"self spouse", http.MethodPost, "/spouses", map[string]any{"person1": a, "person2": a}, http.StatusConflict, "STRUCTURAL_SELF_SPOUSE"},
		{"bad id", http.MethodGet, "/persons/nope", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing name", http.MethodPost, "/persons", map[string]any{"name": ""}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad gender", http.MethodPost, "/persons", map[string]any{"name": "X", "gender": "robot"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", http.MethodPost, "/persons", map[string]any{"name": "X", "age": 3}, http.StatusBadRequest, "INVALID_FORMAT"},
		{"missing edge", http.MethodDelete, "/edges/" + b + "/" + a, nil, http.StatusNotFound, "NOT_FOUND_EDGE"},
		{"bad node kind", http.MethodPut, "/nodes/family/" + a + "/position", map[string]any{"x": 1, "y": 2}, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestFamiliesAndEvents(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createPerson("A")

	rec := ts.do(http.MethodPost, "/families", map[string]any{"name": "Sato", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fam idResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fam))

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, "/families/"+fam.ID+"/members", map[string]any{"person": a}).Code)
	rec = ts.do(http.MethodPost, "/families/"+fam.ID+"/members", map[string]any{"person": a})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_MEMBER", errorCode(t, rec))

	rec = ts.do(http.MethodPost, "/events", map[string]any{"name": "Wedding", "date": "1975"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ev idResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/events/"+ev.ID+"/links", map[string]any{"person": a, "style": "arrow-to-person"}).Code)

	rec = ts.do(http.MethodGet, "/tree", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc famio.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Families, 1)
	assert.Equal(t, []string{a}, doc.Families[0].Members)
	assert.Equal(t, &[3]uint8{255, 0, 0}, doc.Families[0].Color)
	require.Len(t, doc.EventLinks, 1)
	assert.Equal(t, "arrow-to-person", doc.EventLinks[0].Style)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/events/"+ev.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/families/"+fam.ID, nil).Code)
}

func TestMoveLayoutAndSave(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createPerson("A")

	rec := ts.do(http.MethodPut, "/nodes/person/"+a+"/position", map[string]any{"x": 123, "y": 77, "snap": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"x":100,"y":100}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p famio.Person
	require.NoError(t, json.Unmarshal(ts.do(http.MethodGet, "/persons/"+a, nil).Body.Bytes(), &p))
	assert.Equal(t, [2]float64{100, 100}, p.Position, "pinned node kept by layout")

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/layout/reset", nil).Code)
	require.NoError(t, json.Unmarshal(ts.do(http.MethodGet, "/persons/"+a, nil).Body.Bytes(), &p))
	assert.Equal(t, 0.0, p.Position[1], "reset moved the node back to generation 0")

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, "/save", nil).Code)
	loaded, _, err := famio.ImportJSON(ts.path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)
	ts.createPerson("Taro")

	rec := ts.do(http.MethodGet, "/render?theme=high_contrast&lang=en", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))

	rec = ts.do(http.MethodGet, "/render?format=dot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph G")

	rec = ts.do(http.MethodGet, "/render?format=gif", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"NOT_FOUND_FAMILY":            http.StatusNotFound,
		"STRUCTURAL_DUPLICATE_SPOUSE": http.StatusConflict,
		"DUPLICATE_LINK":              http.StatusConflict,
		"INVALID_PATH":                http.StatusBadRequest,
		"STORAGE_ERROR":               http.StatusInternalServerError,
		"LAYOUT_DEGRADED":             http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(errors.Code(code)), code)
	}
}
