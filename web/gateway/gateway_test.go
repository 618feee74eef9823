package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procodebh/crm-console/util/metrics"
)

type captured struct {
	mu          sync.Mutex
	calls       int
	method      string
	path        string
	auth        string
	contentType string
	body        []byte
	form        map[string][]string
	files       map[string][]byte
	fileNames   map[string]string
}

func (c *captured) snapshot() captured {
	c.mu.Lock()
	defer c.mu.Unlock()
	return captured{
		calls: c.calls, method: c.method, path: c.path, auth: c.auth,
		contentType: c.contentType, body: c.body, form: c.form,
		files: c.files, fileNames: c.fileNames,
	}
}

func newBackend(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	rec := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.calls++
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.contentType = r.Header.Get("Content-Type")
		if strings.HasPrefix(rec.contentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				rec.form = r.MultipartForm.Value
				rec.files = map[string][]byte{}
				rec.fileNames = map[string]string{}
				for key, headers := range r.MultipartForm.File {
					f, err := headers[0].Open()
					if err == nil {
						rec.files[key], _ = io.ReadAll(f)
						_ = f.Close()
					}
					rec.fileNames[key] = headers[0].Filename
				}
			}
		} else {
			rec.body, _ = io.ReadAll(r.Body)
		}
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestCallSuccess(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"message":"ok","data":{"id":1}}`)
	client := NewClient(Options{BaseURL: srv.URL + "/api/", Tokens: TokenFunc(func() string { return "T" })})

	resp, err := client.Call(context.Background(), "/students", GET, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "ok", resp.Message)

	obj, err := resp.DataObject()
	require.NoError(t, err)
	assert.EqualValues(t, 1, obj["id"])

	got := rec.snapshot()
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "/api/students", got.path)
	assert.Equal(t, "Bearer T", got.auth)
	assert.Empty(t, got.body)
}

func TestCallJSONBody(t *testing.T) {
	srv, rec := newBackend(t, http.StatusCreated, `{"message":"created"}`)
	client := NewClient(Options{BaseURL: srv.URL})

	resp, err := client.Post(context.Background(), "/login", Payload{"email": "a@b.in", "password": "pw"})
	require.NoError(t, err)
	assert.Equal(t, "created", resp.Message)

	got := rec.snapshot()
	assert.Equal(t, "application/json", got.contentType)
	assert.JSONEq(t, `{"email":"a@b.in","password":"pw"}`, string(got.body))
	assert.Empty(t, got.auth)
}

func TestCallReadsTokenAtCallTime(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	token := "first"
	client := NewClient(Options{BaseURL: srv.URL, Tokens: TokenFunc(func() string { return token })})

	_, err := client.Get(context.Background(), "/profile")
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", rec.snapshot().auth)

	token = "second"
	_, err = client.Get(context.Background(), "/profile")
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", rec.snapshot().auth)

	token = ""
	_, err = client.Get(context.Background(), "/profile")
	require.NoError(t, err)
	assert.Empty(t, rec.snapshot().auth)
}

func TestWithTokenOverridesSource(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	base := NewClient(Options{BaseURL: srv.URL, Tokens: TokenFunc(func() string { return "shared" })})
	scoped := base.WithToken(TokenFunc(func() string { return "mine" }))

	_, err := scoped.Get(context.Background(), "/profile")
	require.NoError(t, err)
	assert.Equal(t, "Bearer mine", rec.snapshot().auth)

	_, err = base.Get(context.Background(), "/profile")
	require.NoError(t, err)
	assert.Equal(t, "Bearer shared", rec.snapshot().auth)
}

func TestCallMultipartWhenFilePresent(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"message":"Course created"}`)
	client := NewClient(Options{BaseURL: srv.URL})

	payload := Payload{
		"courseName": "Go",
		"fee":        12000,
		"instructor": map[string]any{"name": "Anil", "experience": "5"},
		"syllabus":   JSONString{Value: []string{"basics", "channels"}},
		"courseImg":  &File{Name: "go.png", ContentType: "image/png", Data: []byte("PNG")},
	}
	_, err := client.Post(context.Background(), "/admin/createCourse", payload)
	require.NoError(t, err)

	got := rec.snapshot()
	assert.True(t, strings.HasPrefix(got.contentType, "multipart/form-data"))
	assert.Empty(t, got.body)
	assert.Equal(t, []string{"Go"}, got.form["courseName"])
	assert.Equal(t, []string{"12000"}, got.form["fee"])
	assert.Equal(t, []string{"Anil"}, got.form["instructor[name]"])
	assert.Equal(t, []string{"5"}, got.form["instructor[experience]"])
	assert.Equal(t, []string{`["basics","channels"]`}, got.form["syllabus"])
	assert.Equal(t, []byte("PNG"), got.files["courseImg"])
	assert.Equal(t, "go.png", got.fileNames["courseImg"])
}

func TestCallFormWithoutFile(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	client := NewClient(Options{BaseURL: srv.URL})

	_, err := client.Put(context.Background(), "/profile", Form{"name": "Asha", "tags": []string{"a", "b"}})
	require.NoError(t, err)

	got := rec.snapshot()
	assert.True(t, strings.HasPrefix(got.contentType, "multipart/form-data"))
	assert.Equal(t, []string{"Asha"}, got.form["name"])
	assert.Equal(t, []string{"a", "b"}, got.form["tags"])
}

func TestCallErrorMessages(t *testing.T) {
	cases := []struct {
		reply   string
		status  int
		message string
		backend bool
	}{
		{`{"message":"Invalid credentials"}`, http.StatusUnauthorized, "Invalid credentials", true},
		{`{"error":"Course not found"}`, http.StatusNotFound, "Course not found", true},
		{`{"error":{"message":"bad image"}}`, http.StatusBadRequest, "bad image", true},
		{`{}`, http.StatusInternalServerError, "Request failed with status code 500", false},
		{`<html>oops</html>`, http.StatusBadGateway, "Request failed with status code 502", false},
	}
	for _, tc := range cases {
		srv, _ := newBackend(t, tc.status, tc.reply)
		client := NewClient(Options{BaseURL: srv.URL})

		resp, err := client.Get(context.Background(), "/courses/1")
		assert.Nil(t, resp)
		require.Error(t, err)

		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, tc.status, gerr.Status)
		assert.Equal(t, tc.message, gerr.Message)
		assert.Equal(t, tc.status == http.StatusUnauthorized, gerr.Unauthorized())
		assert.Equal(t, tc.status == http.StatusUnauthorized, IsUnauthorized(err))

		if tc.backend {
			assert.Equal(t, tc.message, Message(err, "Failed"))
		} else {
			assert.Equal(t, "Failed", Message(err, "Failed"))
		}
	}
}

func TestCallNetworkFailure(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{}`)
	addr := srv.URL
	srv.Close()

	client := NewClient(Options{BaseURL: addr, Timeout: time.Second})
	resp, err := client.Get(context.Background(), "/dashboard")
	assert.Nil(t, resp)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 0, gerr.Status)
	assert.True(t, gerr.Network())
	assert.NotEmpty(t, gerr.Message)
	assert.Equal(t, "Failed to load", Message(err, "Failed to load"))
}

func TestCallUnsupportedMethod(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	client := NewClient(Options{BaseURL: srv.URL})

	_, err := client.Call(context.Background(), "/students", Method("PATCH"), Payload{"a": 1})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Equal(t, 0, rec.snapshot().calls)

	m, err := ParseMethod("delete")
	require.NoError(t, err)
	assert.Equal(t, DELETE, m)
	_, err = ParseMethod("HEAD")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestResponseAbsentData(t *testing.T) {
	for _, reply := range []string{`{"message":"ok"}`, `{"data":null}`, ``} {
		srv, _ := newBackend(t, http.StatusOK, reply)
		client := NewClient(Options{BaseURL: srv.URL})

		resp, err := client.Get(context.Background(), "/students")
		require.NoError(t, err, reply)

		list, err := resp.DataList()
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		obj, err := resp.DataObject()
		require.NoError(t, err)
		assert.NotNil(t, obj)
		assert.Empty(t, obj)

		type student struct{ Name string }
		var students []student
		require.NoError(t, resp.Decode(&students))
		assert.Empty(t, students)
	}
}

func TestResponseDataList(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"data":[{"_id":"1","name":"Asha"},{"_id":"2","name":"Ravi"}]}`)
	client := NewClient(Options{BaseURL: srv.URL})

	resp, err := client.Get(context.Background(), "/students")
	require.NoError(t, err)
	list, err := resp.DataList()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ravi", list[1]["name"])
}

func TestFlattenNestedMaps(t *testing.T) {
	fields := flattenMap("", map[string]any{
		"b": "2",
		"a": map[string]any{"y": 1, "x": map[string]any{"deep": true}},
		"c": nil,
	}, nil)

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	assert.Equal(t, []string{"a[x][deep]", "a[y]", "b"}, keys)
	assert.False(t, containsFile(Payload{"a": map[string]any{"b": []any{"x"}}}))
	assert.True(t, containsFile(Payload{"a": map[string]any{"b": []any{&File{}}}}))
}

func TestCallMultipartWithFileInSliceOfMaps(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	client := NewClient(Options{BaseURL: srv.URL})

	payload := Payload{
		"name": "Go",
		"modules": []map[string]any{
			{"title": "basics", "notes": &File{Name: "basics.pdf", Data: []byte("PDF1")}},
			{"title": "channels"},
		},
		"tags": []any{"backend", map[string]any{"level": "intermediate"}},
	}
	require.True(t, containsFile(payload))

	_, err := client.Post(context.Background(), "/admin/createCourse", payload)
	require.NoError(t, err)

	got := rec.snapshot()
	assert.True(t, strings.HasPrefix(got.contentType, "multipart/form-data"))
	assert.Equal(t, []string{"basics"}, got.form["modules[0][title]"])
	assert.Equal(t, []string{"channels"}, got.form["modules[1][title]"])
	assert.Equal(t, []byte("PDF1"), got.files["modules[0][notes]"])
	assert.Equal(t, "basics.pdf", got.fileNames["modules[0][notes]"])
	assert.Equal(t, []string{"backend"}, got.form["tags"])
	assert.Equal(t, []string{"intermediate"}, got.form["tags[1][level]"])
}

func TestCallCountsByStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))

	srv, _ := newBackend(t, http.StatusNotFound, `{"message":"no such student"}`)
	client := NewClient(Options{BaseURL: srv.URL})

	notFound := metrics.BackendCallsTotal.WithLabelValues("GET", "4xx")
	exact := metrics.BackendCallsTotal.WithLabelValues("GET", "404")
	before, beforeExact := testutil.ToFloat64(notFound), testutil.ToFloat64(exact)

	_, err := client.Get(context.Background(), "/students/x")
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(notFound))
	assert.Equal(t, beforeExact, testutil.ToFloat64(exact))
}
