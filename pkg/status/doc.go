// Package status tracks one asynchronous remote operation from submission to
// a terminal point. A tracker is a pure function of the documents it has been
// fed: it never performs I/O, never sleeps, and never declares a timeout -
// wall-clock policy belongs to whatever loop drives the polling (see
// pkg/poller). Backend dialects differ only in how their documents parse, so
// variance is injected as a statusdoc.Parser rather than specialized by type.
//
// A tracker must be refreshed from a single goroutine; distinct trackers are
// independent and may be driven concurrently, including through one shared
// agent.
package status
