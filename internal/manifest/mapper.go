package manifest

import "tracklift/internal/catalog"

// Header alias lists, first match wins. Exports from different catalog
// tools disagree on punctuation and casing, so every observed variant is
// listed.
var (
	aliasesOriginalTitle = []string{"Original Title", "Original Title.", "original_title"}
	aliasesGenre         = []string{"Genre", "genre"}
	aliasesVersionType   = []string{"Version Type", "Version Type.", "version_type"}
	aliasesISRC          = []string{"ISRC", "isrc"}
	aliasesComposer      = []string{"Composer", "composer"}
	aliasesProductTitle  = []string{"Product Title", "Product Title.", "product_title"}
	aliasesCatalogNo     = []string{"Catalog No.", "Catalog No", "CatalogNo", "catalog_no", "Catalog no.", "Catalog no"}
	aliasesLabel         = []string{"Label", "label"}
	aliasesUPC           = []string{"UPC", "upc"}
	aliasesReleaseDate   = []string{"Release Date", "Release Date.", "release_date"}
)

// MapRow converts one manifest row into a track. Fields without a
// matching non-empty alias stay empty. Every mapped track is stamped
// pending and marked as archive-derived.
func MapRow(row Row) *catalog.Track {
	return &catalog.Track{
		OriginalTitle:    Get(row, aliasesOriginalTitle...),
		Genre:            Get(row, aliasesGenre...),
		VersionType:      Get(row, aliasesVersionType...),
		ISRC:             Get(row, aliasesISRC...),
		Composer:         Get(row, aliasesComposer...),
		ProductTitle:     Get(row, aliasesProductTitle...),
		CatalogNo:        Get(row, aliasesCatalogNo...),
		Label:            Get(row, aliasesLabel...),
		UPC:              Get(row, aliasesUPC...),
		ReleaseDate:      Get(row, aliasesReleaseDate...),
		MigrationStatus:  catalog.MigrationStatusPending,
		ArchiveProcessed: true,
	}
}

// HasRequiredFields reports whether a mapped track carries the two
// fields ingestion cannot proceed without.
func HasRequiredFields(track *catalog.Track) bool {
	return track != nil && track.OriginalTitle != "" && track.CatalogNo != ""
}

// CatalogNumber extracts the catalog number from a row, falling back to
// "unknown" so cover uploads always have a destination path.
func CatalogNumber(row Row) string {
	if value := Get(row, aliasesCatalogNo...); value != "" {
		return value
	}
	return "unknown"
}
