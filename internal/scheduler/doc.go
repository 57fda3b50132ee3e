// Package scheduler defers work on registered elements until they come
// close to the viewport.
//
// A Scheduler watches elements and calls its fire function exactly once per
// element when any part of the element's vertical extent falls within the
// viewport extended by a proximity margin. Fired elements are evicted
// permanently. Elements that leave the document before they fire are dropped silently.
//
// Extents come from a Layout. AttrLayout reads offsets recorded by a live
// browser host and falls back to FlowLayout, which lays elements out in
// document order at a fixed row height.
package scheduler
