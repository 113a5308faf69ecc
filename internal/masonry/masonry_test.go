package masonry

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"galleria/internal/domain"
	"galleria/internal/lazy"
	"galleria/internal/view"
)

func TestColumnCountBreakpoints(t *testing.T) {
	cases := []struct {
		width, want int
	}{
		{0, 1}, {767, 1}, {768, 2}, {1023, 2}, {1024, 3}, {1279, 3}, {1280, 4}, {4000, 4},
	}
	for _, c := range cases {
		if got := ColumnCount(c.width); got != c.want {
			t.Fatalf("ColumnCount(%d) = %d, want %d", c.width, got, c.want)
		}
	}
}

func TestPlaceShortestColumnFirst(t *testing.T) {
	got := Place(2, []float64{1.5, 1, 1, 0.5})
	want := domain.ColumnLayout{Columns: []domain.Column{
		{Items: []int{0, 3}, Height: 2},
		{Items: []int{1, 2}, Height: 2},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceTiesAndClamp(t *testing.T) {
	got := Place(0, []float64{1, 1})
	if len(got.Columns) != 1 || got.Len() != 2 {
		t.Fatalf("n<1 must clamp to one column: %+v", got)
	}
	even := Place(3, []float64{1, 1, 1, 1})
	if diff := cmp.Diff([]int{0, 3}, even.Columns[0].Items); diff != "" {
		t.Fatalf("ties go to the lowest index:\n%s", diff)
	}
	if n := len(Place(4, nil).Columns); n != 4 {
		t.Fatalf("empty input keeps %d columns, got %d", 4, n)
	}
}

func TestPlaceStaysBalanced(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 1; n <= 5; n++ {
		for round := 0; round < 50; round++ {
			ratios := make([]float64, 1+rng.IntN(40))
			for i := range ratios {
				ratios[i] = 0.2 + rng.Float64()*2.8
			}
			maxRatio := 0.0
			for k := 1; k <= len(ratios); k++ {
				maxRatio = max(maxRatio, ratios[k-1])
				lay := Place(n, ratios[:k])
				lo, hi := lay.Columns[0].Height, lay.Columns[0].Height
				for _, c := range lay.Columns {
					lo, hi = min(lo, c.Height), max(hi, c.Height)
				}
				if hi-lo > maxRatio+1e-9 {
					t.Fatalf("n=%d step %d: spread %.3f > largest ratio %.3f (%v)", n, k, hi-lo, maxRatio, ratios[:k])
				}
				if lay.Len() != k {
					t.Fatalf("n=%d step %d: placed %d items", n, k, lay.Len())
				}
			}
		}
	}
}

func TestAspectRatio(t *testing.T) {
	img := view.NewImage(view.ClassImage)
	if AspectRatio(img) != 1 || AspectRatio(nil) != 1 {
		t.Fatalf("undecoded image counts as square")
	}
	img.SetSrc("x")
	img.MarkLoaded(200, 300)
	if AspectRatio(img) != 1.5 {
		t.Fatalf("ratio = %v", AspectRatio(img))
	}
	img.SetSrc("y")
	img.MarkFailed()
	if AspectRatio(img) != 1 {
		t.Fatalf("failed image counts as square")
	}
}

func records() []domain.ImageRecord {
	recs := []domain.ImageRecord{
		{Filename: "a.png", Fandom: []string{"X", "Y"}, Rating: "G"},
		{Filename: "b.png", SecondaryFilename: "b2.png"},
		{Filename: "c.png"},
	}
	for i := range recs {
		recs[i].Index = i
		recs[i].Primary = domain.AssetURLs{Direct: "https://cdn/" + recs[i].Filename, Proxied: "/gallery/" + recs[i].Filename}
		if recs[i].SecondaryFilename != "" {
			recs[i].Secondary = domain.AssetURLs{Direct: "https://cdn/" + recs[i].SecondaryFilename, Proxied: "/gallery/" + recs[i].SecondaryFilename}
		}
	}
	return recs
}

func TestBuildNodeAttributes(t *testing.T) {
	recs := records()
	img := Image(BuildNode(recs[0]))
	if img == nil {
		t.Fatalf("wrapper has no gallery image")
	}
	checks := map[string]string{
		lazy.AttrDeferred: "https://cdn/a.png",
		AttrPretty:        "/gallery/a.png",
		AttrRating:        "G",
		AttrFandom:        "X,Y",
	}
	for k, want := range checks {
		if got := img.AttrOr(k); got != want {
			t.Fatalf("%s = %q, want %q", k, got, want)
		}
	}
	if _, ok := img.Attr(AttrPreview2Raw); ok {
		t.Fatalf("record without a pair must not carry preview-2 attributes")
	}
	paired := Image(BuildNode(recs[1]))
	if paired.AttrOr(AttrPreview2Raw) != "https://cdn/b2.png" || paired.AttrOr(AttrPreview2Nice) != "/gallery/b2.png" {
		t.Fatalf("pair attributes wrong")
	}
}

type recorder struct{ seen []*view.Image }

func (r *recorder) Observe(img *view.Image) { r.seen = append(r.seen, img) }

func TestRenderRelocatesAndObserves(t *testing.T) {
	doc := view.NewDocument(view.Viewport{Width: 800, Height: 600}, nil)
	obs := &recorder{}
	e := NewEngine(doc, obs)
	recs := records()

	layout := e.Render(recs)
	if len(layout.Columns) != 2 || layout.Len() != 3 {
		t.Fatalf("layout = %+v", layout)
	}
	if diff := cmp.Diff([]int{0, 2}, layout.Columns[0].Items); diff != "" {
		t.Fatalf("column 0:\n%s", diff)
	}
	if len(obs.seen) != 3 {
		t.Fatalf("observed %d deferred images", len(obs.seen))
	}
	first, _ := e.Registry.Node(0)

	// filtered re-render keeps node identity and detaches the rest
	layout = e.Render([]domain.ImageRecord{recs[2], recs[0]})
	again, _ := e.Registry.Node(0)
	if first != again || e.Registry.Len() != 3 {
		t.Fatalf("nodes must be reused across renders")
	}
	if diff := cmp.Diff([][]int{{2}, {0}}, [][]int{layout.Columns[0].Items, layout.Columns[1].Items}); diff != "" {
		t.Fatalf("items are record indexes:\n%s", diff)
	}
	hidden, _ := e.Registry.Node(1)
	if doc.Attached(hidden) {
		t.Fatalf("filtered-out node still attached")
	}
	if got := len(doc.Gallery.Children()); got != 2 {
		t.Fatalf("gallery holds %d columns", got)
	}
}

func TestRenderIsIdempotentAndKeepsScroll(t *testing.T) {
	doc := view.NewDocument(view.Viewport{Width: 400, Height: 300}, nil)
	e := NewEngine(doc, nil)
	recs := records()
	a := e.Render(recs)
	doc.Scroll.SetTop(200)
	b := e.Render(recs)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("re-render changed layout:\n%s", diff)
	}
	if doc.Scroll.Top() != 200 {
		t.Fatalf("scroll = %v, want 200", doc.Scroll.Top())
	}
	// shrinking content clamps the restored offset
	e.Render(recs[:1])
	if doc.Scroll.Top() != 0 {
		t.Fatalf("scroll = %v, want clamped 0", doc.Scroll.Top())
	}
}

func TestRenderUsesDecodedRatios(t *testing.T) {
	doc := view.NewDocument(view.Viewport{Width: 800, Height: 600}, nil)
	e := NewEngine(doc, nil)
	recs := records()
	e.Render(recs)
	tall := Image(e.Registry.Ensure(recs[0]))
	tall.SetSrc(tall.AttrOr(lazy.AttrDeferred))
	tall.MarkLoaded(100, 300)
	layout := e.Render(recs)
	// item 0 has height 3 so both followers land in column 1
	if diff := cmp.Diff([]int{1, 2}, layout.Columns[1].Items); diff != "" {
		t.Fatalf("column 1:\n%s", diff)
	}
}
