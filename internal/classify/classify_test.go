package classify

import (
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

const pageURL = "https://news.example.com/world/today"

func parse(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
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

func detect(t *testing.T, n *html.Node) candidate.Candidate {
	t.Helper()
	c, decision := candidate.MustDetector().Detect(n)
	if decision != candidate.Register {
		t.Fatalf("%s: decision = %s, expected register", dom.Describe(n), decision)
	}
	return c
}

// TestClassifyLink tests the ordered link rules.
func TestClassifyLink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		body     string
		expected model.Type
		evidence string
	}{
		{
			name:     "ad network domain",
			body:     `<article><a id="c" href="https://ads.doubleclick.net/path?utm_source=outbrain">Buy the new phone today</a></article>`,
			expected: model.TypeAd,
			evidence: "Destination URL matches: doubleclick.net",
		},
		{
			name:     "ad domain wins over container keyword",
			body:     `<article><p>Sponsored</p><a id="c" href="https://securepubads.g.doubleclick.net/x">Great deals on everything</a></article>`,
			expected: model.TypeAd,
			evidence: "Destination URL matches: doubleclick.net",
		},
		{
			name:     "recommendation tracking key",
			body:     `<article><a id="c" href="/story?tblci=GiCx9a">Ten things you did not know</a></article>`,
			expected: model.TypeSponsored,
			evidence: "Recommendation tracking parameter: tblci=GiCx9a",
		},
		{
			name:     "recommendation network in utm value",
			body:     `<article><a id="c" href="/story?utm_medium=referral&utm_source=Taboola">Ten things you did not know</a></article>`,
			expected: model.TypeSponsored,
			evidence: "Recommendation tracking parameter: utm_source=Taboola",
		},
		{
			name:     "sponsored path marker",
			body:     `<article><a id="c" href="/sponsored/acme-cloud">How Acme is changing the cloud</a></article>`,
			expected: model.TypeSponsored,
			evidence: `Destination path contains "/sponsored"`,
		},
		{
			name:     "container discloses sponsorship",
			body:     `<article><span>Presented by Acme</span><a id="c" href="/tech/acme">Acme launches a new product line</a></article>`,
			expected: model.TypeSponsored,
			evidence: `Container text contains "presented by"`,
		},
		{
			name:     "own disclosure label does not self flag",
			body:     `<article><a id="c" href="/tech/gadgets">Sponsored: the best gadgets of the year</a></article>`,
			expected: model.TypeNews,
			evidence: "No ad or sponsored signals found",
		},
		{
			name:     "external domain",
			body:     `<section><a id="c" href="https://www.other.org/report">A report from another outlet</a></section>`,
			expected: model.TypeSponsored,
			evidence: "External domain: other.org",
		},
		{
			name:     "www prefix is the same site",
			body:     `<li><a id="c" href="https://www.news.example.com/politics/vote">Parliament passes the budget bill</a></li>`,
			expected: model.TypeNews,
			evidence: "No ad or sponsored signals found",
		},
		{
			name:     "fourteen characters is neutral",
			body:     `<article><a id="c" href="/a">abcdefghijklmn</a></article>`,
			expected: model.TypeNeutral,
			evidence: "Visible text is only 14 characters",
		},
		{
			name:     "fifteen characters is news",
			body:     `<article><a id="c" href="/a">abcdefghijklmno</a></article>`,
			expected: model.TypeNews,
			evidence: "No ad or sponsored signals found",
		},
		{
			name:     "image link without text",
			body:     `<article><a id="c" href="/a"><img src="/x.png"></a></article>`,
			expected: model.TypeNeutral,
			evidence: "No visible text",
		},
		{
			name:     "no block container ignores parent text",
			body:     `<div>Sponsored <a id="c" href="/story/1">A headline long enough to count</a></div>`,
			expected: model.TypeNews,
			evidence: "No ad or sponsored signals found",
		},
		{
			name:     "class based container",
			body:     `<div class="promo-card">Paid content <a id="c" href="/story/1">A headline long enough to count</a></div>`,
			expected: model.TypeSponsored,
			evidence: `Container text contains "paid content"`,
		},
		{
			name:     "malformed destination matches ad domain as text",
			body:     `<article><a id="c" href="https://ads.doubleclick.net:bad/x">Buy the new phone today</a></article>`,
			expected: model.TypeAd,
			evidence: "Destination URL matches: doubleclick.net",
		},
		{
			name:     "malformed destination matches path marker as text",
			body:     `<article><a id="c" href="/Sponsored/%zz">How Acme is changing the cloud</a></article>`,
			expected: model.TypeSponsored,
			evidence: `Destination path contains "/sponsored"`,
		},
		{
			name:     "malformed destination never counts as external",
			body:     `<article><a id="c" href="http://exa mple.com/story">A headline long enough to count</a></article>`,
			expected: model.TypeNews,
			evidence: "No ad or sponsored signals found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, tc.body)
			c := New(MustLocation(pageURL))
			out := c.Classify(detect(t, byID(t, doc, "c")))

			if got := out.Result.Type(); got != tc.expected {
				t.Errorf("type = %s, expected %s (%v)", got, tc.expected, out.Result.Summary())
			}
			if got := out.Result.Reason(); got != tc.evidence {
				t.Errorf("evidence = %q, expected %q", got, tc.evidence)
			}
			if out.Zone != nil {
				t.Error("link outcomes must never promote a zone")
			}
			if out.Target != byID(t, doc, "c") {
				t.Error("expected the link itself to be the target")
			}
		})
	}
}

// TestClassifyIsIdempotent tests that repeated classification of unchanged
// state yields the same result.
func TestClassifyIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<article><p>Partner content</p><a id="c" href="/x?gclid=1&utm_source=mail">Something happened in town today</a></article>`)
	c := New(MustLocation(pageURL))
	cand := detect(t, byID(t, doc, "c"))

	first := c.Classify(cand)
	second := c.Classify(cand)
	if !first.Result.Equal(second.Result) {
		t.Errorf("results differ:\n%v\n%v", first.Result.Details(), second.Result.Details())
	}
}

// TestClassifyLinkExplicitContainer tests the pure link entry point.
func TestClassifyLinkExplicitContainer(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div id="box">Advertorial</div><a id="c" href="/x">A headline long enough to count</a>`)
	c := New(MustLocation(pageURL))
	link := candidate.NewLink(byID(t, doc, "c"))

	if got := c.ClassifyLink(link, byID(t, doc, "box")).Type(); got != model.TypeSponsored {
		t.Errorf("with container: %s, expected sponsored", got)
	}
	if got := c.ClassifyLink(link, nil).Type(); got != model.TypeNews {
		t.Errorf("without container: %s, expected news", got)
	}
}

// TestParsedURL tests the destination breakdown.
func TestParsedURL(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<article><a id="c" href="https://Shop.Example.org/p?utm_source=x&id=5&gclid=abc&REF=home&obOrigUrl=true">A product that you might like</a></article>`)
	out := New(MustLocation(pageURL)).Classify(detect(t, byID(t, doc, "c")))

	if out.URL == nil {
		t.Fatal("expected parsed URL")
	}
	if out.URL.Hostname != "shop.example.org" {
		t.Errorf("hostname = %q", out.URL.Hostname)
	}
	want := []model.Param{
		{Key: "utm_source", Value: "x"},
		{Key: "gclid", Value: "abc"},
		{Key: "REF", Value: "home"},
		{Key: "obOrigUrl", Value: "true"},
	}
	if len(out.URL.FlaggedParams) != len(want) {
		t.Fatalf("flagged = %v, expected %v", out.URL.FlaggedParams, want)
	}
	for i := range want {
		if out.URL.FlaggedParams[i] != want[i] {
			t.Errorf("flagged[%d] = %v, expected %v", i, out.URL.FlaggedParams[i], want[i])
		}
	}
	if out.Result.Reason() != "Recommendation tracking parameter: obOrigUrl=true" {
		t.Errorf("unexpected reason %q", out.Result.Reason())
	}
}

// TestClassifyFrame tests the generic frame chain and zone escalation.
func TestClassifyFrame(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		frame    string
		expected model.Type
		evidence string
		zone     bool
	}{
		{
			name:     "blank source",
			frame:    `<iframe id="c" src="" ></iframe>`,
			expected: model.TypeSponsored,
			evidence: "Blank iframe source (dynamic content or tracking pixel)",
			zone:     true,
		},
		{
			name:     "google ads slot",
			frame:    `<iframe src="" id="google_ads_iframe_1"></iframe>`,
			expected: model.TypeAd,
			evidence: "Iframe ID contains google_ads",
			zone:     true,
		},
		{
			name:     "about blank with ad name",
			frame:    `<iframe id="c" src="about:blank" name="aswift_0"></iframe>`,
			expected: model.TypeAd,
			evidence: "Iframe ID contains aswift",
			zone:     true,
		},
		{
			name:     "ad domain source",
			frame:    `<iframe id="c" src="https://tpc.googlesyndication.com/safeframe/1-0-40/html/container.html"></iframe>`,
			expected: model.TypeAd,
			evidence: "Iframe source matches: googlesyndication.com",
			zone:     true,
		},
		{
			name:     "ad id with internal source",
			frame:    `<iframe id="div-gpt-ad-top" src="/ads/slot"></iframe>`,
			expected: model.TypeAd,
			evidence: "Iframe ID contains div-gpt-ad",
			zone:     true,
		},
		{
			name:     "internal embed",
			frame:    `<iframe id="c" src="https://news.example.com/embed/video1"></iframe>`,
			expected: model.TypeNews,
			evidence: "Iframe source is an internal embed: news.example.com",
		},
		{
			name:     "sibling subdomain is internal",
			frame:    `<iframe id="c" src="https://video.example.com/player/9"></iframe>`,
			expected: model.TypeNews,
			evidence: "Iframe source is an internal embed: video.example.com",
		},
		{
			name:     "external source",
			frame:    `<iframe id="c" src="https://www.youtube.com/embed/abc"></iframe>`,
			expected: model.TypeSponsored,
			evidence: "Iframe from external source: www.youtube.com",
			zone:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, `<div id="slot">`+tc.frame+`</div>`)
			slot := byID(t, doc, "slot")
			frame := dom.Find(slot, func(n *html.Node) bool { return n.Data == "iframe" })

			out := New(MustLocation(pageURL)).Classify(detect(t, frame))
			if got := out.Result.Type(); got != tc.expected {
				t.Errorf("type = %s, expected %s", got, tc.expected)
			}
			if got := out.Result.Reason(); got != tc.evidence {
				t.Errorf("evidence = %q, expected %q", got, tc.evidence)
			}
			if tc.zone {
				if out.Zone != slot || out.Target != slot {
					t.Error("expected the frame's parent to be the zone and target")
				}
			} else {
				if out.Zone != nil {
					t.Error("expected no zone")
				}
				if out.Target != frame {
					t.Error("expected the frame itself to be the target")
				}
			}
		})
	}
}

// TestClassifyWidget tests widget containers.
func TestClassifyWidget(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
		<div id="framed" class="OUTBRAIN"><div><iframe src="https://widgets.outbrain.com/x?utm_source=outbrain"></iframe></div></div>
		<div id="wrapper" class="trc_related_container"><a href="/story/1">Related story headline here</a></div>
		<div id="shadow" class="zergnet-widget" data-advisor-shadow=""></div>`)
	c := New(MustLocation(pageURL))

	framed := c.Classify(detect(t, byID(t, doc, "framed")))
	if framed.Result.Type() != model.TypeSponsored || framed.Result.Reason() != "Recommendation widget (embedded frame)" {
		t.Errorf("framed widget = %s %q", framed.Result.Type(), framed.Result.Reason())
	}
	if framed.Zone != byID(t, doc, "framed") {
		t.Error("expected framed widget to become a zone")
	}
	if framed.URL == nil || framed.URL.Hostname != "widgets.outbrain.com" {
		t.Errorf("unexpected widget URL %+v", framed.URL)
	}

	wrapper := c.Classify(detect(t, byID(t, doc, "wrapper")))
	if !wrapper.Skipped || wrapper.Zone != nil {
		t.Errorf("expected wrapper to be skipped without zone: %+v", wrapper)
	}

	shadow := c.Classify(detect(t, byID(t, doc, "shadow")))
	if shadow.Result.Type() != model.TypeSponsored || shadow.Result.Reason() != "Recommendation widget (shadow widget)" {
		t.Errorf("shadow widget = %s %q", shadow.Result.Type(), shadow.Result.Reason())
	}
	if shadow.Zone != byID(t, doc, "shadow") {
		t.Error("expected shadow host to become a zone")
	}
}

// TestClassifyWidgetFrame tests a frame classified on its own inside a
// widget container.
func TestClassifyWidgetFrame(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<div id="taboola-below"><span>loading</span><iframe id="f" src="https://news.example.com/taboola/frame"></iframe></div>`)
	c := New(MustLocation(pageURL))

	out := c.Classify(detect(t, byID(t, doc, "f")))
	container := byID(t, doc, "taboola-below")
	if out.Result.Type() != model.TypeSponsored || out.Result.Reason() != "Recommendation widget (embedded frame)" {
		t.Errorf("widget frame = %s %q", out.Result.Type(), out.Result.Reason())
	}
	if out.Target != container || out.Zone != container || out.Rule != "widget-frame" {
		t.Errorf("expected the container to be labeled and zoned, got rule %q", out.Rule)
	}
	if out.URL == nil || out.URL.Hostname != "news.example.com" {
		t.Errorf("unexpected URL %+v", out.URL)
	}
}

// TestWithAdDomains tests extending the ad-network list.
func TestWithAdDomains(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<article><a id="c" href="https://track.house-ads.test/click">A long enough headline text</a></article>`)
	c := New(MustLocation(pageURL), WithAdDomains("house-ads.test"))
	if got := c.Classify(detect(t, byID(t, doc, "c"))).Result.Type(); got != model.TypeAd {
		t.Errorf("type = %s, expected ad", got)
	}
}

// TestDomainHelpers tests RootDomain and StripWWW.
func TestDomainHelpers(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		host string
		root string
		bare string
	}{
		{"news.example.com", "example.com", "news.example.com"},
		{"www.Example.com", "example.com", "example.com"},
		{"example.com.", "example.com", "example.com."},
		{"localhost", "localhost", "localhost"},
		{"a.b.c.example.co.uk", "co.uk", "a.b.c.example.co.uk"},
	}

	for _, tc := range testCases {
		t.Run(tc.host, func(t *testing.T) {
			t.Parallel()
			if got := RootDomain(tc.host); got != tc.root {
				t.Errorf("RootDomain(%q) = %q, expected %q", tc.host, got, tc.root)
			}
			if got := StripWWW(tc.host); got != tc.bare {
				t.Errorf("StripWWW(%q) = %q, expected %q", tc.host, got, tc.bare)
			}
		})
	}
}

// TestParseLocation tests page location parsing.
func TestParseLocation(t *testing.T) {
	t.Parallel()

	loc, err := ParseLocation("https://WWW.News.Example.com:8443/a")
	if err != nil {
		t.Fatalf("ParseLocation error = %v", err)
	}
	if loc.Hostname() != "www.news.example.com" {
		t.Errorf("Hostname() = %q", loc.Hostname())
	}

	empty, err := ParseLocation("")
	if err != nil || empty.Hostname() != "" {
		t.Errorf("empty location = %q, %v", empty.Hostname(), err)
	}
	u, err := empty.Resolve("/relative")
	if err != nil || u.Host != "" {
		t.Errorf("Resolve on empty location = %v, %v", u, err)
	}

	if _, err := ParseLocation("http://[::1"); err == nil {
		t.Error("expected parse error")
	}
}
