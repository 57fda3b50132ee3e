// Package pipeline runs advisor sessions over pages in ordered steps.
//
// A page goes through a Job: it is loaded, an engine.Session is created
// and initialized over it, optional replay scripts and scrolls are
// applied, and the session report is collected. Each stage is a Step, so
// the CLI composes the stages it needs and tests can substitute their
// own.
//
// BatchProcessor runs many jobs concurrently using errgroup with a
// concurrency limit. Each session stays single-threaded; sessions never
// share a document.
package pipeline
