//nolint:exhaustruct // tests
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/n-r-w/apifetch"
)

type testServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.hits.Add(1)
			next.ServeHTTP(w, req)
		})
	})

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	r.Get("/index", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"links": []string{"threads", "forums"}})
	})
	r.Get("/threads/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"thread_id": chi.URLParam(req, "id"),
			"page":      req.URL.Query().Get("page"),
			"token":     req.Header.Get("X-Token"),
		})
	})
	r.Post("/posts", func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		writeJSON(w, map[string]any{"body": req.PostForm.Get("body")})
	})
	r.Get("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	r.Get("/garbage", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})
	r.Get("/slow", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, "late")
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

func TestTransport_Fetch(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()
	tr := New(Config{APIRoot: srv.URL + "/", Headers: map[string]string{"X-Token": "t1"}})

	v, err := tr.Fetch(ctx, nil, apifetch.Descriptor{URI: "index"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"links": []any{"threads", "forums"}}, v)

	v, err = tr.Fetch(ctx, nil, apifetch.Descriptor{URI: "/threads/7", Params: map[string]string{"page": "2"}})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"thread_id": "7", "page": "2", "token": "t1"}, v)

	v, err = tr.Fetch(ctx, nil, apifetch.Descriptor{Method: "post", URI: "posts", Params: map[string]string{"body": "hi"}})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"body": "hi"}, v)
}

func TestTransport_ConfigOverride(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	tr := New(Config{APIRoot: "http://127.0.0.1:1", Headers: map[string]string{"X-Token": "t1"}})

	v, err := tr.Fetch(context.Background(), Config{APIRoot: srv.URL, Headers: map[string]string{"X-Token": "t2"}},
		apifetch.Descriptor{URI: "threads/1"})
	require.NoError(t, err)
	require.Equal(t, "t2", v.(map[string]any)["token"])

	_, err = tr.Fetch(context.Background(), &Config{APIRoot: srv.URL}, apifetch.Descriptor{URI: "index"})
	require.NoError(t, err)
}

func TestTransport_Errors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()
	tr := New(Config{APIRoot: srv.URL})

	_, err := tr.Fetch(ctx, nil, apifetch.Descriptor{})
	require.ErrorIs(t, err, ErrMissingURI)

	_, err = New(Config{}).Fetch(ctx, nil, apifetch.Descriptor{URI: "index"})
	require.ErrorIs(t, err, ErrMissingAPIRoot)

	_, err = tr.Fetch(ctx, nil, apifetch.Descriptor{URI: "broken"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.Code)
	require.Contains(t, statusErr.Body, "nope")

	_, err = tr.Fetch(ctx, nil, apifetch.Descriptor{URI: "garbage"})
	require.ErrorContains(t, err, "decode GET garbage")

	_, err = tr.Fetch(ctx, Config{Timeout: 20 * time.Millisecond}, apifetch.Descriptor{URI: "slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransport_PerCallTimeoutExceedsBase(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()
	tr := New(Config{APIRoot: srv.URL, Timeout: 20 * time.Millisecond})

	_, err := tr.Fetch(ctx, nil, apifetch.Descriptor{URI: "slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := tr.Fetch(ctx, Config{Timeout: 2 * time.Second}, apifetch.Descriptor{URI: "slow"})
	require.NoError(t, err)
	require.Equal(t, "late", res)
}

func TestTransport_WithProvider(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	api := apifetch.New(New(Config{APIRoot: srv.URL}))

	child := &apifetch.Component{
		Name: "Thread",
		Fetches: map[string]apifetch.FetchSpec{
			"index":  apifetch.URI("index"),
			"links":  apifetch.Static(apifetch.Descriptor{URI: "index", OnSuccess: func(r any) any { return r.(map[string]any)["links"] }}),
			"thread": apifetch.Static(apifetch.Descriptor{URI: "threads/3"}),
			"broken": apifetch.URI("broken"),
		},
	}
	c, err := api.ConsumerHoc(child)
	require.NoError(t, err)
	p, err := api.ProviderHoc(&apifetch.Component{
		Name:   "Page",
		Render: func(apifetch.Props) []apifetch.Element { return []apifetch.Element{apifetch.NewElement(c, nil)} },
	})
	require.NoError(t, err)

	data, err := api.FetchApiDataForProvider(context.Background(), apifetch.NewElement(p, nil))
	require.NoError(t, err)
	require.Equal(t, int32(3), srv.hits.Load())
	require.Equal(t, int64(3), api.FetchCount())
	require.NotContains(t, data, "broken")

	root := apifetch.Mount(context.Background(), apifetch.NewElement(p, apifetch.Props{apifetch.PropAPIData: data}))
	defer root.Unmount()
	root.Wait()

	props := root.Props("Thread")[0]
	require.Equal(t, []any{"threads", "forums"}, props["links"])
	require.Equal(t, "3", props["thread"].(map[string]any)["thread_id"])
	require.Equal(t, int32(3), srv.hits.Load())
}
