package catalog

import "time"

// MigrationStatusPending marks tracks awaiting review after ingestion.
const MigrationStatusPending = "pending"

// Track is a single catalog entry created from a manifest row.
//
// String fields left empty in the manifest stay empty here; the store
// persists them as NULL so downstream consumers can distinguish absent
// metadata from blank values.
type Track struct {
	ID               int64     `json:"id"`
	OriginalTitle    string    `json:"original_title"`
	Genre            string    `json:"genre,omitempty"`
	VersionType      string    `json:"version_type,omitempty"`
	ISRC             string    `json:"isrc,omitempty"`
	Composer         string    `json:"composer,omitempty"`
	ProductTitle     string    `json:"product_title,omitempty"`
	CatalogNo        string    `json:"catalog_no"`
	Label            string    `json:"label,omitempty"`
	UPC              string    `json:"upc,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	AudioURL         string    `json:"wav_url,omitempty"`
	CoverURL         string    `json:"cover_url,omitempty"`
	MigrationStatus  string    `json:"migration_status"`
	ArchiveProcessed bool      `json:"archive_processed"`
	CreatedAt        time.Time `json:"created_at"`
}
