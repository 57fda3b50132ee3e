package registry

import (
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

func fixture(t *testing.T) (zone, inner, outside *html.Node) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(
		`<body><div id="zone"><p><a id="inner" href="/a">a</a></p></div><a id="outside" href="/b">b</a></body>`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	get := func(id string) *html.Node {
		return dom.Find(doc, func(n *html.Node) bool { return dom.Attr(n, "id") == id })
	}
	return get("zone"), get("inner"), get("outside")
}

// TestRegisterAtMostOnce tests that a candidate is registered and
// processed only once.
func TestRegisterAtMostOnce(t *testing.T) {
	t.Parallel()

	_, inner, _ := fixture(t)
	r := New()

	if !r.Register(inner, model.KindLink) {
		t.Fatal("expected first Register to succeed")
	}
	if r.Register(inner, model.KindLink) {
		t.Error("expected duplicate pending Register to be ignored")
	}
	if kind, ok := r.Pending(inner); !ok || kind != model.KindLink {
		t.Errorf("Pending() = %v, %v", kind, ok)
	}

	if !r.MarkProcessed(inner) {
		t.Fatal("expected first MarkProcessed to succeed")
	}
	if r.MarkProcessed(inner) {
		t.Error("expected second MarkProcessed to fail")
	}
	if r.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, expected 0", r.PendingCount())
	}
	if r.Register(inner, model.KindLink) {
		t.Error("expected Register of processed node to be ignored")
	}
	if !r.IsProcessed(inner) {
		t.Error("expected node to be processed")
	}
}

// TestZoneSuppression tests that zone descendants cannot be registered.
func TestZoneSuppression(t *testing.T) {
	t.Parallel()

	zone, inner, outside := fixture(t)
	r := New()

	if !r.PromoteToZone(zone, model.TypeSponsored) {
		t.Fatal("expected promotion to succeed")
	}
	if r.PromoteToZone(zone, model.TypeAd) {
		t.Error("expected re-promotion to be ignored")
	}

	z, typ, ok := r.ZoneOf(inner)
	if !ok || z != zone || typ != model.TypeSponsored {
		t.Errorf("ZoneOf(inner) = %v, %v, %v", z, typ, ok)
	}
	if _, _, ok := r.ZoneOf(zone); !ok {
		t.Error("expected zone membership to be inclusive")
	}
	if _, _, ok := r.ZoneOf(outside); ok {
		t.Error("expected outside node to be outside any zone")
	}

	if r.Register(inner, model.KindLink) {
		t.Error("expected zone descendant registration to be ignored")
	}
	if !r.Register(outside, model.KindLink) {
		t.Error("expected outside registration to succeed")
	}
	if got := r.Zones(); len(got) != 1 || got[0] != zone {
		t.Errorf("Zones() = %v", got)
	}
}

// TestSkipAndForget tests Skip and Forget.
func TestSkipAndForget(t *testing.T) {
	t.Parallel()

	_, inner, outside := fixture(t)
	r := New()

	if !r.Skip(inner) {
		t.Error("expected Skip to succeed")
	}
	if r.Register(inner, model.KindLink) {
		t.Error("expected skipped node to stay processed")
	}

	r.Register(outside, model.KindLink)
	r.Forget(outside)
	if r.PendingCount() != 0 {
		t.Error("expected Forget to drop pending node")
	}
	if !r.Register(outside, model.KindLink) {
		t.Error("expected forgotten node to be registrable again")
	}
}

// TestReset tests that Reset clears all state.
func TestReset(t *testing.T) {
	t.Parallel()

	zone, inner, outside := fixture(t)
	r := New()
	r.PromoteToZone(zone, model.TypeAd)
	r.MarkProcessed(outside)
	r.Reset()

	if !r.Register(inner, model.KindLink) || !r.Register(outside, model.KindLink) {
		t.Error("expected registration to succeed after Reset")
	}
	if len(r.Zones()) != 0 {
		t.Error("expected no zones after Reset")
	}
	if r.MarkProcessed(nil) || r.Register(nil, model.KindLink) || r.PromoteToZone(nil, model.TypeAd) {
		t.Error("expected nil nodes to be rejected")
	}
}
