package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"galleria/internal/blob"
	"galleria/internal/manifest"
)

func seeded(t *testing.T) *blob.Memory {
	t.Helper()
	m := blob.NewMemory()
	ctx := context.Background()
	if _, err := m.Put(ctx, "fandom/piece one.png", strings.NewReader("PNGDATA"), blob.PutOptions{ContentType: "image/png"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Put(ctx, "gallery.json", strings.NewReader(`[{"filename":"fandom/piece one.png"}]`), blob.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatal(err)
	}
	return m
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestObjectEndpoint(t *testing.T) {
	h := New(Options{Store: seeded(t)}).Handler()
	for _, prefix := range []string{"/gallery/", "/api/images/"} {
		rec := get(t, h, http.MethodGet, prefix+"fandom/piece%20one.png")
		if rec.Code != http.StatusOK || rec.Body.String() != "PNGDATA" {
			t.Fatalf("%s: %d %q", prefix, rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("content type = %q", ct)
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=31536000, immutable" {
			t.Fatalf("cache control = %q", cc)
		}
		if et := rec.Header().Get("ETag"); !strings.HasPrefix(et, `"`) || !strings.HasSuffix(et, `"`) || len(et) < 3 {
			t.Fatalf("etag must be quoted: %q", et)
		}
	}
}

func TestObjectHead(t *testing.T) {
	h := New(Options{Store: seeded(t)}).Handler()
	rec := get(t, h, http.MethodHead, "/gallery/fandom/piece%20one.png")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("HEAD = %d, body %d bytes", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Content-Length") != "7" || rec.Header().Get("ETag") == "" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestObjectErrors(t *testing.T) {
	h := New(Options{Store: seeded(t)}).Handler()
	cases := []struct {
		path string
		code int
		body string
	}{
		{"/gallery/missing.png", http.StatusNotFound, "Image not found"},
		{"/api/images/nested/missing.png", http.StatusNotFound, "Image not found"},
		{"/api/images/", http.StatusNotFound, "File path missing"},
		{"/gallery", http.StatusNotFound, "File path missing"},
	}
	for _, c := range cases {
		rec := get(t, h, http.MethodGet, c.path)
		if rec.Code != c.code || rec.Body.String() != c.body {
			t.Fatalf("%s: %d %q, want %d %q", c.path, rec.Code, rec.Body.String(), c.code, c.body)
		}
	}
}

type failingStore struct{ blob.Store }

func (failingStore) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, nil, errors.New("credentials expired")
}

func (failingStore) Head(context.Context, string) (blob.Info, error) {
	return blob.Info{}, errors.New("credentials expired")
}

func TestObjectInternalErrorHidesDetails(t *testing.T) {
	m := NewMetrics()
	h := New(Options{Store: failingStore{blob.NewMemory()}, Metrics: m}).Handler()
	rec := get(t, h, http.MethodGet, "/gallery/a.png")
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != "Internal Server Error" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rr := get(t, h, http.MethodGet, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d", rr.Code)
	}
	metrics := get(t, h, http.MethodGet, "/metrics").Body.String()
	if !strings.Contains(metrics, `galleria_object_requests_total{code="500"} 1`) {
		t.Fatalf("counter missing:\n%s", metrics)
	}
	if !strings.Contains(metrics, "galleria_object_request_seconds_count 1") {
		t.Fatalf("histogram missing")
	}
}

func TestHealthAndVersion(t *testing.T) {
	h := New(Options{Store: seeded(t)}).Handler()
	if rec := get(t, h, http.MethodGet, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, h, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
	if rec := get(t, h, http.MethodGet, "/version"); rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("version = %d", rec.Code)
	}
}

func TestManifestFromBlobAndFallback(t *testing.T) {
	store := seeded(t)
	// without a provider the manifest is just another object
	h := New(Options{Store: store}).Handler()
	if rec := get(t, h, http.MethodGet, ManifestPath); rec.Code != http.StatusOK || rec.Header().Get("Cache-Control") != cacheImmutable {
		t.Fatalf("object fallback = %d", rec.Code)
	}

	h = New(Options{Store: store, Manifest: SourceProvider{Source: manifest.BlobSource{Store: store, Key: "gallery.json"}}}).Handler()
	rec := get(t, h, http.MethodGet, ManifestPath)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "piece one") {
		t.Fatalf("manifest = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Fatalf("manifest must revalidate")
	}
	req := httptest.NewRequest(http.MethodGet, ManifestPath, nil)
	req.Header.Set("If-None-Match", rec.Header().Get("ETag"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotModified {
		t.Fatalf("conditional GET = %d", rr.Code)
	}
}

func TestManifestInvalidIs500(t *testing.T) {
	store := blob.NewMemory()
	_, _ = store.Put(context.Background(), "gallery.json", strings.NewReader(`[{"tags":["x"]}]`), blob.PutOptions{})
	h := New(Options{Store: store, Manifest: SourceProvider{Source: manifest.BlobSource{Store: store, Key: "gallery.json"}}}).Handler()
	if rec := get(t, h, http.MethodGet, ManifestPath); rec.Code != http.StatusInternalServerError {
		t.Fatalf("invalid manifest = %d", rec.Code)
	}
}

func TestWatchedFileReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallery.json")
	if err := os.WriteFile(path, []byte(`[{"filename":"a.png"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	wf, err := NewWatchedFile(path)
	if err != nil {
		t.Fatalf("NewWatchedFile: %v", err)
	}
	t.Cleanup(func() { _ = wf.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan bool, 8)
	done := make(chan struct{})
	go func() {
		wf.Run(ctx, func(ok bool) {
			select {
			case reloaded <- ok:
			default:
			}
		})
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	_, first, err := wf.Manifest(ctx)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if err := os.WriteFile(path, []byte(`[{"filename":"b.png"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-reloaded:
		case <-deadline:
			t.Fatalf("no reload observed")
		}
		data, etag, _ := wf.Manifest(ctx)
		if etag != first && strings.Contains(string(data), "b.png") {
			break
		}
	}
	// an invalid edit keeps the last good document
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	for failed := false; !failed; {
		select {
		case ok := <-reloaded:
			failed = !ok
		case <-deadline:
			t.Fatalf("invalid document never rejected")
		}
	}
	if data, _, err := wf.Manifest(ctx); err != nil || !strings.Contains(string(data), "b.png") {
		t.Fatalf("last good document lost: %q %v", data, err)
	}
}
