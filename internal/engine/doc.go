// Package engine binds the advisor components into a session over one
// page.
//
// A Session owns its document, registry, scheduler, watcher, classifier
// and annotator. It processes one event at a time: either through Run,
// which selects over the inbound channels from a single goroutine, or
// through the synchronous Handle methods. No locks are taken; a Session
// must not be shared between goroutines.
//
// The flow for every candidate is:
//
//	scan -> registry -> scheduler -> classifier -> zone -> anchor -> annotate
//
// Classification is lazy. A candidate is registered when it is found, but
// only classified once the scheduler reports it near the viewport. Zone
// membership is checked again at that point, so a candidate that was
// registered before its container became a zone is suppressed.
package engine
