package present

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return doc
}

func byID(t *testing.T, doc *html.Node, id string) *html.Node {
	t.Helper()
	n := dom.Find(doc, func(n *html.Node) bool { return dom.Attr(n, "id") == id })
	if n == nil {
		t.Fatalf("element #%s not found", id)
	}
	return n
}

// TestLines tests tooltip and panel text.
func TestLines(t *testing.T) {
	t.Parallel()

	r := model.NewResult(model.TypeAd,
		[]string{"Destination URL matches: doubleclick.net"},
		[]string{"Destination URL matches: doubleclick.net", "Kind: link"})

	tip := TooltipLines(r)
	if len(tip) != 2 || tip[0] != "Classified as Ad" || tip[1] != "Reason: Destination URL matches: doubleclick.net" {
		t.Errorf("TooltipLines() = %q", tip)
	}
	panel := PanelLines(r)
	if len(panel) != 3 || !strings.HasPrefix(panel[0], "This content appears to be an advertisement") {
		t.Errorf("PanelLines() = %q", panel)
	}
	if got := TooltipLines(model.NewResult(model.TypeNews, nil, nil)); len(got) != 1 {
		t.Errorf("expected headline only, got %q", got)
	}
}

// TestAnnotateAndRevert tests that every change is undone.
func TestAnnotateAndRevert(t *testing.T) {
	t.Parallel()

	const markup = `<html><head></head><body><div id="box" class="card"><a id="a" href="/x">Headline text</a><img id="img" src="/i.png"/><iframe id="f" src="/e"></iframe></div></body></html>`
	doc := parse(t, markup)
	before := dom.OuterHTML(doc)

	a := NewAnnotator(doc)
	link := byID(t, doc, "a")
	id1 := a.Annotate(link, link, model.TypeNews)
	id2 := a.Annotate(byID(t, doc, "img"), byID(t, doc, "img"), model.TypeAd)
	frame := byID(t, doc, "f")
	id3 := a.Annotate(frame, frame, model.TypeSponsored)
	a.MarkZone(byID(t, doc, "box"), model.TypeSponsored)
	a.SetFocus(true)

	if id1 != 1 || id2 != 2 || id3 != 3 || a.Len() != 3 {
		t.Fatalf("ids = %d %d %d, len %d", id1, id2, id3, a.Len())
	}
	if dom.Attr(link, TypeAttr) != "news" || !dom.HasClass(link, TargetClass) {
		t.Error("expected link to be marked")
	}
	badge := a.Badge(id1)
	if badge == nil || badge.Parent != link || link.FirstChild != badge {
		t.Fatal("expected badge to be the first child of the link")
	}
	if dom.VisibleText(link) != "Headline text" {
		t.Errorf("badge leaked into visible text: %q", dom.VisibleText(link))
	}
	if b := a.Badge(id2); b == nil || b.NextSibling != byID(t, doc, "img") {
		t.Error("expected badge before the void element")
	}
	if b := a.Badge(id3); b == nil || b.NextSibling != frame || frame.FirstChild != nil {
		t.Error("expected badge before the frame")
	}
	if dom.Attr(byID(t, doc, "box"), ZoneAttr) != "sponsored" {
		t.Error("expected zone marker")
	}
	if !dom.HasClass(dom.Body(doc), FocusClass) || !a.Focused() {
		t.Error("expected focus class on body")
	}

	if id, ok := a.Lookup(badge.FirstChild); !ok || id != id1 {
		t.Errorf("Lookup(badge text) = %d, %v", id, ok)
	}
	if _, ok := a.Lookup(byID(t, doc, "box")); ok {
		t.Error("expected no annotation above the zone")
	}

	a.Revert()
	if got := dom.OuterHTML(doc); got != before {
		t.Errorf("document not restored:\n got %s\nwant %s", got, before)
	}
	if a.Len() != 0 || a.Focused() {
		t.Error("expected empty annotator")
	}
	if next := a.Annotate(link, link, model.TypeNews); next != 4 {
		t.Errorf("expected badge ids to keep increasing, got %d", next)
	}
}

// TestRevertKeepsExistingClass tests that a pre-existing class survives.
func TestRevertKeepsExistingClass(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<body class="news-focus-mode"><h2 id="h" class="advisor-target">Title</h2></body>`)
	a := NewAnnotator(doc)
	h := byID(t, doc, "h")
	a.Annotate(h, h, model.TypeAd)
	a.SetFocus(true)
	a.Revert()

	if !dom.HasClass(h, TargetClass) || !dom.HasClass(dom.Body(doc), FocusClass) {
		t.Error("revert removed classes the page owned")
	}
}

// TestRecorder tests that the recorder captures every hook.
func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	var (
		tip  Tooltip  = r
		pan  Panel    = r
		list Listener = r
	)
	tip.Show(model.Point{X: 1, Y: 2}, []string{"a"})
	pan.Open([]string{"b"}, "<a>", &model.ParsedURL{Hostname: "x"})
	list.Annotated(model.Annotation{BadgeID: 7})

	if len(r.Tooltips()) != 1 || r.Tooltips()[0].Pos.Y != 2 {
		t.Errorf("tooltips = %+v", r.Tooltips())
	}
	if len(r.Panels()) != 1 || r.Panels()[0].URL.Hostname != "x" {
		t.Errorf("panels = %+v", r.Panels())
	}
	if len(r.Annotations()) != 1 || r.Annotations()[0].BadgeID != 7 {
		t.Errorf("annotations = %+v", r.Annotations())
	}
}

// TestLogCollaborators tests the slog-backed hooks.
func TestLogCollaborators(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogTooltip{Logger: logger}.Show(model.Point{}, []string{"Classified as Ad"})
	LogPanel{Logger: logger}.Open([]string{"x"}, "<a></a>", &model.ParsedURL{Hostname: "ads.example"})
	LogListener{Logger: logger}.Annotated(model.Annotation{
		BadgeID: 1,
		Result:  model.NewResult(model.TypeAd, []string{"r"}, nil),
	})

	out := buf.String()
	for _, want := range []string{"msg=tooltip", "msg=panel", "hostname=ads.example", "msg=annotated", "type=ad"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// TestListeners tests annotation fan-out.
func TestListeners(t *testing.T) {
	t.Parallel()

	first, second := NewRecorder(), NewRecorder()
	Listeners{first, nil, second}.Annotated(model.Annotation{BadgeID: 3})

	if len(first.Annotations()) != 1 || len(second.Annotations()) != 1 {
		t.Error("expected every listener to be notified")
	}
}
