// Package daemon hosts the long-running ingest service: single-instance
// locking, crash recovery for interrupted jobs, the workflow manager,
// and the HTTP API the admin UI and CLI talk to.
package daemon
