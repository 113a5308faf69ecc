package manifest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"galleria/internal/blob"
	"galleria/internal/domain"
)

const sample = `[
  {"filename":"a.png","fandom":["Zeta"],"tags":["rpf"],"rating":"G","date":"2020"},
  {"filename":"b.png","preview-2":"b2.png","fandom":["alpha","Zeta"],"tags":[" rpf "],"date":"03/15/2021"},
  {"filename":"c.png","fandom":["Beta"]}
]`

func TestDecodeValidManifest(t *testing.T) {
	recs, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(recs) != 3 || recs[1].SecondaryFilename != "b2.png" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"object top level": `{"filename":"a.png"}`,
		"missing filename": `[{"tags":["x"]}]`,
		"tags not strings": `[{"filename":"a.png","tags":[1]}]`,
		"empty filename":   `[{"filename":""}]`,
	}
	for name, doc := range cases {
		if _, err := Decode([]byte(doc)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: want ErrInvalid, got %v", name, err)
		}
	}
}

func TestNormalizeAssignsDerivedFields(t *testing.T) {
	recs, _ := Decode([]byte(sample))
	out := Normalize(recs, DefaultURLStrategy())
	if recs[0].Index != 0 || recs[0].Primary.Direct != "" {
		t.Fatalf("input must not be mutated")
	}
	b := out[1]
	if b.Index != 1 || !b.ParsedDate.Equal(time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("derived fields wrong: %+v", b)
	}
	want := domain.AssetURLs{Direct: "https://bucket.wildwizardcreation.com/b.png", Proxied: "/gallery/b.png"}
	if diff := cmp.Diff(want, b.Primary); diff != "" {
		t.Fatalf("primary urls (-want +got):\n%s", diff)
	}
	if b.Secondary.Proxied != "/gallery/b2.png" {
		t.Fatalf("secondary = %+v", b.Secondary)
	}
	if !out[2].Secondary.Empty() || !out[2].ParsedDate.Equal(domain.Epoch) {
		t.Fatalf("record without pair/date: %+v", out[2])
	}
}

func TestURLStrategyProxiedMode(t *testing.T) {
	u := URLStrategy{Mode: "proxied", DirectBase: "https://cdn.test", ProxyPrefix: "/api/images"}
	got := u.URLs("/x/y.png")
	if got.Direct != "https://cdn.test/x/y.png" || got.Proxied != "/api/images/x/y.png" {
		t.Fatalf("urls = %+v", got)
	}
	if got.Load() != "/api/images/x/y.png" {
		t.Fatalf("proxied mode loads %q", got.Load())
	}
}

func TestFandomsSortedCaseInsensitive(t *testing.T) {
	recs, _ := Decode([]byte(sample))
	got := Fandoms(recs)
	if diff := cmp.Diff([]string{"alpha", "Beta", "Zeta"}, got); diff != "" {
		t.Fatalf("fandoms (-want +got):\n%s", diff)
	}
	if Fandoms(nil) != nil {
		t.Fatalf("empty dataset should yield no fandoms")
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gallery/gallery.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()
	if b, err := (HTTPSource{URL: srv.URL + "/gallery/gallery.json"}).Fetch(ctx); err != nil || len(b) == 0 {
		t.Fatalf("http fetch: %v", err)
	}
	if _, err := (HTTPSource{URL: srv.URL + "/missing.json"}).Fetch(ctx); err == nil {
		t.Fatalf("non-2xx must be an error")
	}

	p := filepath.Join(t.TempDir(), "gallery.json")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := SourceFor(p).Fetch(ctx); err != nil {
		t.Fatalf("file fetch: %v", err)
	}
	if _, ok := SourceFor("HTTPS://x.test/g.json").(HTTPSource); !ok {
		t.Fatalf("https location should map to HTTPSource")
	}

	store := blob.NewMemory()
	if _, err := store.Put(ctx, "gallery.json", bytes.NewReader([]byte(sample)), blob.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatal(err)
	}
	if b, err := (BlobSource{Store: store, Key: "gallery.json"}).Fetch(ctx); err != nil || string(b) != sample {
		t.Fatalf("blob fetch: %v", err)
	}
	if _, err := (BlobSource{Store: store, Key: "nope.json"}).Fetch(ctx); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("missing blob: %v", err)
	}
}

type failingSource struct{}

func (failingSource) Fetch(context.Context) ([]byte, error) { return nil, errors.New("offline") }

func TestLoaderLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "gallery.json")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := Loader{Source: FileSource{Path: p}, URLs: DefaultURLStrategy()}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Records) != 3 || len(res.Fandoms) != 3 || res.Records[2].Index != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := (Loader{Source: failingSource{}}).Load(context.Background()); err == nil {
		t.Fatalf("fetch failure must surface")
	}
	if _, err := (Loader{}).Load(context.Background()); err == nil {
		t.Fatalf("missing source must surface")
	}
}

func TestEncodeRoundTripsManifestFields(t *testing.T) {
	recs, _ := Decode([]byte(sample))
	b, err := Encode(Normalize(recs, DefaultURLStrategy()))
	if err != nil {
		t.Fatal(err)
	}
	again, err := Decode(b)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if diff := cmp.Diff(recs, again); diff != "" {
		t.Fatalf("manifest fields changed (-want +got):\n%s", diff)
	}
	if b, _ := Encode(nil); string(b) != "[]" {
		t.Fatalf("empty encode = %s", b)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("0001_gallery_images.sql"); err != nil || v != 1 {
		t.Fatalf("parseVersion = %d, %v", v, err)
	}
	if _, err := parseVersion("gallery.sql"); err == nil {
		t.Fatalf("expected error for unversioned file")
	}
}
