package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tracklift/internal/config"
)

// Store manages track persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "catalog.db"))
}

// OpenPath opens the catalog database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

const trackColumns = "id, original_title, genre, version_type, isrc, composer, product_title, catalog_no, label, upc, release_date, wav_url, cover_url, migration_status, archive_processed, created_at"

// Create persists a new track and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, track *Track) (*Track, error) {
	if track == nil {
		return nil, errors.New("track is required")
	}
	if strings.TrimSpace(track.OriginalTitle) == "" {
		return nil, errors.New("original title is required")
	}
	if strings.TrimSpace(track.CatalogNo) == "" {
		return nil, errors.New("catalog number is required")
	}

	stored := *track
	if stored.MigrationStatus == "" {
		stored.MigrationStatus = MigrationStatusPending
	}
	stored.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
INSERT INTO tracks (
  original_title, genre, version_type, isrc, composer, product_title,
  catalog_no, label, upc, release_date, wav_url, cover_url,
  migration_status, archive_processed, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.OriginalTitle,
		nullableString(stored.Genre),
		nullableString(stored.VersionType),
		nullableString(stored.ISRC),
		nullableString(stored.Composer),
		nullableString(stored.ProductTitle),
		stored.CatalogNo,
		nullableString(stored.Label),
		nullableString(stored.UPC),
		nullableString(stored.ReleaseDate),
		nullableString(stored.AudioURL),
		nullableString(stored.CoverURL),
		stored.MigrationStatus,
		stored.ArchiveProcessed,
		stored.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert track: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("track id: %w", err)
	}
	stored.ID = id
	return &stored, nil
}

// ExistingISRCs returns the set of ISRCs already present in the catalog,
// uppercased. Tracks without an ISRC are excluded.
func (s *Store) ExistingISRCs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT isrc FROM tracks WHERE isrc IS NOT NULL AND isrc != ''")
	if err != nil {
		return nil, fmt.Errorf("query isrcs: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var isrc string
		if err := rows.Scan(&isrc); err != nil {
			return nil, fmt.Errorf("scan isrc: %w", err)
		}
		set[strings.ToUpper(isrc)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate isrcs: %w", err)
	}
	return set, nil
}

// ListByCatalogNo returns all tracks sharing a catalog number, oldest first.
func (s *Store) ListByCatalogNo(ctx context.Context, catalogNo string) ([]*Track, error) {
	return s.queryTracks(ctx,
		"SELECT "+trackColumns+" FROM tracks WHERE catalog_no = ? ORDER BY created_at, id",
		catalogNo)
}

// List returns tracks newest first, bounded by limit. A limit <= 0 returns
// every track.
func (s *Store) List(ctx context.Context, limit int) ([]*Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		return s.queryTracks(ctx, query+" LIMIT ?", limit)
	}
	return s.queryTracks(ctx, query)
}

// CountAll returns the total number of catalog tracks.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

func (s *Store) queryTracks(ctx context.Context, query string, args ...any) ([]*Track, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		track            Track
		genre            sql.NullString
		versionType      sql.NullString
		isrc             sql.NullString
		composer         sql.NullString
		productTitle     sql.NullString
		label            sql.NullString
		upc              sql.NullString
		releaseDate      sql.NullString
		audioURL         sql.NullString
		coverURL         sql.NullString
		archiveProcessed int
		createdRaw       string
	)

	if err := scanner.Scan(
		&track.ID,
		&track.OriginalTitle,
		&genre,
		&versionType,
		&isrc,
		&composer,
		&productTitle,
		&track.CatalogNo,
		&label,
		&upc,
		&releaseDate,
		&audioURL,
		&coverURL,
		&track.MigrationStatus,
		&archiveProcessed,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	track.Genre = genre.String
	track.VersionType = versionType.String
	track.ISRC = isrc.String
	track.Composer = composer.String
	track.ProductTitle = productTitle.String
	track.Label = label.String
	track.UPC = upc.String
	track.ReleaseDate = releaseDate.String
	track.AudioURL = audioURL.String
	track.CoverURL = coverURL.String
	track.ArchiveProcessed = archiveProcessed != 0

	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		track.CreatedAt = created
	}
	return &track, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
