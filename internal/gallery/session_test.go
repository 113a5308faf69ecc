package gallery

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"galleria/internal/accent"
	"galleria/internal/lightbox"
	"galleria/internal/manifest"
	"galleria/internal/prefs"
	"galleria/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testManifest = `[
 {"filename": "a.png", "fandom": ["Zeta"], "tags": ["rpf"], "date": "2020"},
 {"filename": "b.png", "fandom": ["alpha"], "tags": ["nsfw "], "date": "1/2/2021", "preview-2": "b2.png"},
 {"filename": "c.png", "fandom": ["alpha", "Zeta"], "tags": [], "date": "3/4/2019"},
 {"filename": "d.png", "tags": ["rpf", "nsfw"], "date": ""},
 {"filename": "e.png", "tags": ["untracked"], "date": "2022"}
]`

type bytesSource []byte

func (b bytesSource) Fetch(context.Context) ([]byte, error) { return b, nil }

type brokenSource struct{}

func (brokenSource) Fetch(context.Context) ([]byte, error) { return nil, errors.New("offline") }

type countingFetcher struct {
	mu   sync.Mutex
	urls []string
}

func (f *countingFetcher) Fetch(_ context.Context, url string) (image.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return image.Config{Width: 100, Height: 100}, nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

func flatSampler() accent.Sampler {
	return accent.SamplerFunc(func(context.Context, string) (color.RGBA, error) {
		return color.RGBA{R: 10, G: 20, B: 30, A: 255}, nil
	})
}

func loader(src manifest.Source) manifest.Loader {
	return manifest.Loader{Source: src, URLs: manifest.DefaultURLStrategy()}
}

func controls() []view.CheckboxSpec {
	return []view.CheckboxSpec{
		{ID: "rpf", Tag: "rpf", Label: "RPF"},
		{ID: "nsfw", Tag: "nsfw", Label: "NSFW"},
		{ID: "nsfw-mobile", Tag: "nsfw", Label: "NSFW"},
	}
}

// allTags is a returning visitor who had every derived tag checked.
func allTags() prefs.KV {
	kv := prefs.NewMemoryKV()
	_ = kv.Set(prefs.KeyFilters, `{"nsfw": true, "rpf": true, "untracked": true}`)
	return kv
}

func visibleFiles(s *Session) []string {
	var out []string
	for _, r := range s.Visible() {
		out = append(out, r.Filename)
	}
	return out
}

func newSync(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Manifest.Source == nil {
		opts.Manifest = loader(bytesSource(testManifest))
	}
	if opts.Fetcher == nil {
		opts.Fetcher = &countingFetcher{}
	}
	if opts.Sampler == nil {
		opts.Sampler = flatSampler()
	}
	if opts.Viewport.Width == 0 {
		opts.Viewport = view.Viewport{Width: 1280, Height: 4000}
	}
	s := New(opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestStartDerivesControlsAndRenders(t *testing.T) {
	s := newSync(t, Options{Prefs: allTags()})
	ids := []string{}
	for _, cb := range s.Doc.Checkboxes {
		ids = append(ids, cb.ID)
	}
	if diff := cmp.Diff([]string{"nsfw", "rpf", "untracked"}, ids); diff != "" {
		t.Fatalf("derived controls:\n%s", diff)
	}
	if s.Doc.CountInfo != "Showing 5 of 5 images." {
		t.Fatalf("count = %q", s.Doc.CountInfo)
	}
	if s.Doc.SelectAll != view.LabelDeselect {
		t.Fatalf("select all label = %q", s.Doc.SelectAll)
	}
	// newest first, undated last
	if diff := cmp.Diff([]string{"e.png", "b.png", "a.png", "c.png", "d.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("order:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha", "Zeta"}, s.Fandoms()); diff != "" {
		t.Fatalf("fandoms:\n%s", diff)
	}
	if len(s.Doc.Fandom.Items) != 3 || len(s.Layout().Columns) != 4 {
		t.Fatalf("menu or columns wrong")
	}
}

func TestFirstVisitWithDerivedControls(t *testing.T) {
	kv := prefs.NewMemoryKV()
	s := newSync(t, Options{Prefs: kv})
	want := map[string]bool{"nsfw": false, "rpf": true, "untracked": false}
	got := map[string]bool{}
	for _, cb := range s.Doc.Checkboxes {
		got[cb.ID] = cb.Checked
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("first visit checks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.png", "c.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("visible:\n%s", diff)
	}
	if s.Doc.CountInfo != "Showing 2 of 5 images." || s.Doc.SelectAll != view.LabelSelectAll {
		t.Fatalf("count %q label %q", s.Doc.CountInfo, s.Doc.SelectAll)
	}

	// no prefs backend behaves like a first visit
	s = newSync(t, Options{})
	if c, _ := s.Doc.Checkbox("nsfw"); c {
		t.Fatalf("nsfw checked without stored filters")
	}
}

func TestFirstVisitChecksDefaultTag(t *testing.T) {
	kv := prefs.NewMemoryKV()
	s := newSync(t, Options{Checkboxes: controls(), Prefs: kv})
	if c, _ := s.Doc.Checkbox("rpf"); !c {
		t.Fatalf("rpf must be checked on first visit")
	}
	if diff := cmp.Diff([]string{"e.png", "a.png", "c.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("visible:\n%s", diff)
	}
	if s.Doc.SelectAll != view.LabelSelectAll {
		t.Fatalf("label = %q", s.Doc.SelectAll)
	}
	if _, ok, _ := kv.Get(prefs.KeyFilters); ok {
		t.Fatalf("start must not save")
	}
}

func TestCheckboxSyncsSameTagAndSaves(t *testing.T) {
	kv := prefs.NewMemoryKV()
	s := newSync(t, Options{Checkboxes: controls(), Prefs: kv})
	s.Dispatch(CheckboxChanged{ID: "nsfw-mobile", Checked: true})
	if c, _ := s.Doc.Checkbox("nsfw"); !c {
		t.Fatalf("same-tag checkbox not synced")
	}
	if s.Doc.CountInfo != "Showing 5 of 5 images." || s.Doc.SelectAll != view.LabelDeselect {
		t.Fatalf("count %q label %q", s.Doc.CountInfo, s.Doc.SelectAll)
	}
	st, found := prefs.Load(kv)
	if !found {
		t.Fatalf("filters not saved")
	}
	want := map[string]bool{"rpf": true, "nsfw": true, "nsfw-mobile": true}
	if diff := cmp.Diff(want, st.Checks); diff != "" {
		t.Fatalf("saved checks:\n%s", diff)
	}
	s.Dispatch(CheckboxChanged{ID: "missing", Checked: true})
}

func TestRestoreAppliesByTag(t *testing.T) {
	kv := prefs.NewMemoryKV()
	_ = kv.Set(prefs.KeyFilters, `{"nsfw": true, "rpf": false}`)
	_ = kv.Set(prefs.KeyFandom, "alpha")
	_ = kv.Set(prefs.KeySort, "oldest")
	s := newSync(t, Options{Checkboxes: controls(), Prefs: kv})
	if c, _ := s.Doc.Checkbox("nsfw-mobile"); !c {
		t.Fatalf("saved tag must apply to every checkbox sharing it")
	}
	if s.Doc.Fandom.Value != "alpha" || s.Doc.Fandom.Label != "alpha" || s.Doc.Sort.Label != "Oldest" {
		t.Fatalf("dropdowns = %+v / %+v", s.Doc.Fandom, s.Doc.Sort)
	}
	if diff := cmp.Diff([]string{"c.png", "b.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("visible:\n%s", diff)
	}
	if s.Doc.CountInfo != "Showing 2 of 5 images." {
		t.Fatalf("count = %q", s.Doc.CountInfo)
	}
}

func TestRestoreMatchesControlID(t *testing.T) {
	kv := prefs.NewMemoryKV()
	_ = kv.Set(prefs.KeyFilters, `{"nsfw-mobile": true, "rpf": false}`)
	s := newSync(t, Options{Prefs: kv, Checkboxes: []view.CheckboxSpec{
		{ID: "rpf", Tag: "rpf", Label: "RPF"},
		{ID: "nsfw-mobile", Tag: "nsfw", Label: "NSFW"},
	}})
	if c, _ := s.Doc.Checkbox("nsfw-mobile"); !c {
		t.Fatalf("control without a same-named tag lost its saved state")
	}
	if c, _ := s.Doc.Checkbox("rpf"); c {
		t.Fatalf("rpf should be restored unchecked")
	}
	if diff := cmp.Diff([]string{"e.png", "b.png", "c.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("visible:\n%s", diff)
	}
}

func TestDropdownAndSelectAll(t *testing.T) {
	kv := prefs.NewMemoryKV()
	s := newSync(t, Options{Checkboxes: controls(), Prefs: kv})
	s.Dispatch(DropdownSelected{DropdownID: view.IDSort, Value: "oldest"})
	if diff := cmp.Diff([]string{"c.png", "a.png", "e.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("oldest order:\n%s", diff)
	}
	if v, _, _ := kv.Get(prefs.KeySort); v != "oldest" {
		t.Fatalf("sort not saved: %q", v)
	}
	s.Dispatch(DropdownSelected{DropdownID: "nope", Value: "x"})

	s.Dispatch(SelectAllClicked{})
	if s.Doc.SelectAll != view.LabelDeselect || len(s.Visible()) != 5 {
		t.Fatalf("select all did not check everything")
	}
	s.Dispatch(SelectAllClicked{})
	if s.Doc.SelectAll != view.LabelSelectAll {
		t.Fatalf("label = %q", s.Doc.SelectAll)
	}
	// only records without tracked tags stay
	if diff := cmp.Diff([]string{"c.png", "e.png"}, visibleFiles(s)); diff != "" {
		t.Fatalf("visible:\n%s", diff)
	}
}

func TestManifestFailureLeavesEmptyGallery(t *testing.T) {
	s := New(Options{Checkboxes: controls(), Manifest: loader(brokenSource{}), Viewport: view.Viewport{Width: 500, Height: 500}})
	if err := s.Start(context.Background()); err == nil || s.LoadErr() == nil {
		t.Fatalf("want load error")
	}
	if s.Doc.CountInfo != "Showing 0 of 0 images." {
		t.Fatalf("count = %q", s.Doc.CountInfo)
	}
	s.Dispatch(SelectAllClicked{})
	if s.Doc.CountInfo != "Showing 0 of 0 images." || s.Doc.SelectAll != view.LabelDeselect {
		t.Fatalf("controls must keep working")
	}
}

func TestLazyPromotionFollowsScroll(t *testing.T) {
	f := &countingFetcher{}
	s := newSync(t, Options{Fetcher: f, Prefs: allTags(), Viewport: view.Viewport{Width: 500, Height: 100}})
	// one column of 250px reserves; the look-ahead zone is 0..300
	before := f.count()
	if before == 0 || before == 5 {
		t.Fatalf("initial promotions = %d", before)
	}
	for top := 0.0; top <= 4000; top += 200 {
		s.Dispatch(Scrolled{Top: top})
	}
	if f.count() != 5 {
		t.Fatalf("after scrolling to the end %d fetched", f.count())
	}
	img := s.Image(s.Visible()[0].Index)
	if !img.HasClass(view.ClassLoaded) {
		t.Fatalf("promoted image not marked loaded")
	}
	if v, _ := img.Parent().Style("min-height"); v != "0" {
		t.Fatalf("reserve = %q", v)
	}
}

func TestItemClickOpensLightbox(t *testing.T) {
	var opened []string
	s := newSync(t, Options{Prefs: allTags(), Navigator: lightbox.NavigatorFunc(func(u string) { opened = append(opened, u) })})
	b := s.Master()[1]
	s.Dispatch(ItemClicked{Index: b.Index})
	if s.Lightbox().State() != lightbox.Open {
		t.Fatalf("state = %v", s.Lightbox().State())
	}
	if s.Doc.Preview1.Src() != b.Primary.Load() || s.Doc.Preview2.Src() != b.Secondary.Load() {
		t.Fatalf("slots = %q, %q", s.Doc.Preview1.Src(), s.Doc.Preview2.Src())
	}
	s.Dispatch(PreviewHovered{Slot: 2, Entered: true})
	if accent.Border(s.Doc.Preview2) != "rgb(10,20,30)" {
		t.Fatalf("hover accent = %q", accent.Border(s.Doc.Preview2))
	}
	s.Dispatch(PreviewClicked{Slot: 1})
	if diff := cmp.Diff([]string{"/gallery/b.png"}, opened); diff != "" {
		t.Fatalf("navigation:\n%s", diff)
	}
	s.Dispatch(BackdropClicked{TargetID: view.IDPreview2})
	if s.Lightbox().State() != lightbox.Open {
		t.Fatalf("click inside a preview closed the overlay")
	}
	s.Dispatch(BackdropClicked{TargetID: view.IDOverlay})
	if s.Lightbox().State() != lightbox.Closed || s.Doc.Preview1.Src() != "" {
		t.Fatalf("overlay not closed")
	}
}

func TestDeferredItemDoesNotOpen(t *testing.T) {
	s := newSync(t, Options{Prefs: allTags(), Viewport: view.Viewport{Width: 500, Height: 10}})
	last := s.Visible()[len(s.Visible())-1]
	s.Dispatch(ItemClicked{Index: last.Index})
	if s.Lightbox().State() != lightbox.Closed {
		t.Fatalf("deferred image opened the lightbox")
	}
}

func TestAsyncResizeIsDebounced(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Options{
		Manifest:    loader(bytesSource(testManifest)),
		Prefs:       allTags(),
		Fetcher:     &countingFetcher{},
		Sampler:     flatSampler(),
		Viewport:    view.Viewport{Width: 1280, Height: 800},
		Async:       true,
		ResizeQuiet: 100 * time.Millisecond,
	})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	columns := func() int {
		ch := make(chan int, 1)
		s.Dispatch(callback(func() { ch <- len(s.Layout().Columns) }))
		return <-ch
	}
	for _, w := range []int{1000, 900, 700} {
		s.Dispatch(Resized{Viewport: view.Viewport{Width: w, Height: 800}})
	}
	if n := columns(); n != 4 {
		t.Fatalf("render ran before the quiet period: %d columns", n)
	}
	deadline := time.Now().Add(2 * time.Second)
	for columns() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("debounced render never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAsyncLightboxJoin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Options{
		Manifest: loader(bytesSource(testManifest)),
		Prefs:    allTags(),
		Fetcher:  &countingFetcher{},
		Sampler:  flatSampler(),
		Viewport: view.Viewport{Width: 1280, Height: 4000},
		Async:    true,
	})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	state := func() (lightbox.State, bool) {
		ch := make(chan lightbox.State, 1)
		loaded := make(chan bool, 1)
		s.Dispatch(callback(func() {
			ch <- s.Lightbox().State()
			loaded <- s.Image(1).Src() != ""
		}))
		return <-ch, <-loaded
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := state(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("image never promoted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Dispatch(ItemClicked{Index: 1})
	for {
		if st, _ := state(); st == lightbox.Open {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("lightbox never opened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTagControlsAndCount(t *testing.T) {
	recs, err := manifest.Decode([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	got := TagControls(recs)
	if len(got) != 3 || got[0].ID != "nsfw" || got[0].Checked {
		t.Fatalf("TagControls = %+v", got)
	}
	if CountText(0, 0) != "Showing 0 of 0 images." {
		t.Fatalf("CountText = %q", CountText(0, 0))
	}
}
