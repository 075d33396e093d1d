// Package main hosts the tracklift CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API, queue maintenance operations, catalog
// inspection, and configuration scaffolding. Queue and catalog commands
// fall back to direct database access when no daemon is reachable, so
// maintenance works while the service is stopped.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
