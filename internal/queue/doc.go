// Package queue persists ingestion jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, the processing claim used as the idempotency guard, and crash
// recovery for jobs stranded mid-processing. Jobs capture phase labels,
// measured upload throughput, and created/skipped counts so observers can
// poll progress without additional state.
//
// Treat this package as the single source of truth for job semantics; when
// you add statuses or fields, update schema.sql and bump schemaVersion.
package queue
