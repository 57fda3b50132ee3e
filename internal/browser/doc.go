// Package browser hosts advisor sessions in a live Chrome tab.
//
// A Host launches Chrome through go-rod, or connects to a running one, and
// opens a Tab per page. The tab injects a MutationObserver that stamps
// rendered offsets onto inserted elements and queues insert, remove and
// attribute records addressed by element path. Tab.Stream polls that
// queue and the scroll position on an interval and feeds them into
// engine.Session.Run as mutation batches and viewport events, so the Go
// document mirrors the live one.
//
// Annotations produced by the session are mirrored back into the tab as
// badges when the tab is used as the session listener.
package browser
