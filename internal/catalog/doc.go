// Package catalog persists migrated tracks in a SQLite database.
//
// The catalog is the destination side of the migration: each ingested
// archive contributes zero or more tracks, keyed for duplicate detection
// by their ISRC. Tracks enter with migration_status "pending" and carry
// an archive_processed flag recording their provenance.
package catalog
