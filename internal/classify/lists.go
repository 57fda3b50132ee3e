package classify

// MinTextLength is the number of visible characters below which a link is
// too small to judge.
const MinTextLength = 15

// AdDomains are advertising-network hosts. A destination matches when its
// host equals a domain or is a subdomain of it.
var AdDomains = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googleadservices.com",
	"adservice.google.com",
	"amazon-adsystem.com",
	"adnxs.com",
	"criteo.com",
	"pubmatic.com",
	"rubiconproject.com",
	"openx.net",
	"moatads.com",
	"adsrvr.org",
	"smartadserver.com",
	"yieldmo.com",
}

// RecommendationParams are query keys only recommendation networks add.
var RecommendationParams = []string{
	"tblci",
	"dicbo",
	"oborigurl",
}

// RecommendationNetworks are names that identify a recommendation network
// when they appear in a utm_* value.
var RecommendationNetworks = []string{
	"taboola",
	"outbrain",
	"zergnet",
	"revcontent",
	"mgid",
}

// PathMarkers are destination path fragments used for paid content.
var PathMarkers = []string{
	"/sponsored",
	"/paid-post",
	"/paidpost",
	"/partner-content",
	"/brandvoice",
	"/advertorial",
	"/promoted",
	"/sponsor/",
}

// SponsoredKeywords are disclosure phrases searched for in container text.
var SponsoredKeywords = []string{
	"sponsored",
	"paid content",
	"partner content",
	"presented by",
	"promoted",
	"brandvoice",
	"advertorial",
	"paid post",
}

// TrackingParams are query keys reported in the parsed destination.
// Keys ending in "_" match by prefix.
var TrackingParams = []string{
	"utm_",
	"tblci",
	"dicbo",
	"oborigurl",
	"gclid",
	"fbclid",
	"affid",
	"ref",
}

// AdIDKeywords identify ad slots by frame id or name.
var AdIDKeywords = []string{
	"google_ads",
	"div-gpt-ad",
	"aswift",
	"dfp",
	"ad_iframe",
}

// containerSelector matches block elements that scope a link's context.
const containerSelector = "article, section, li, aside, " +
	"[class*='card'], [class*='story'], [class*='article']"
