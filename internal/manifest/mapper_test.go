package manifest_test

import (
	"testing"

	"tracklift/internal/catalog"
	"tracklift/internal/manifest"
)

func TestMapRowStampsProvenance(t *testing.T) {
	rows := manifest.Parse("Original Title,ISRC,Catalog No.,Genre\nNight Drive,HUA110300001,CAT-001,house\n")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	track := manifest.MapRow(rows[0])
	if track.OriginalTitle != "Night Drive" || track.CatalogNo != "CAT-001" {
		t.Fatalf("unexpected track: %#v", track)
	}
	if track.Genre != "house" || track.ISRC != "HUA110300001" {
		t.Fatalf("unexpected track: %#v", track)
	}
	if track.MigrationStatus != catalog.MigrationStatusPending {
		t.Fatalf("expected pending status, got %q", track.MigrationStatus)
	}
	if !track.ArchiveProcessed {
		t.Fatal("expected archive provenance flag")
	}
}

func TestMapRowCatalogNoAliases(t *testing.T) {
	variants := []string{"Catalog No.", "Catalog No", "CatalogNo", "catalog_no", "Catalog no.", "Catalog no"}
	for _, header := range variants {
		track := manifest.MapRow(manifest.Row{"Original Title": "A", header: "CAT-001"})
		if track.CatalogNo != "CAT-001" {
			t.Fatalf("alias %q not mapped", header)
		}
	}
}

func TestMapRowOmitsEmptyFields(t *testing.T) {
	track := manifest.MapRow(manifest.Row{
		"Original Title": "Night Drive",
		"Catalog No":     "CAT-001",
		"Composer":       "",
	})
	if track.Composer != "" || track.UPC != "" {
		t.Fatalf("expected empty optional fields, got %#v", track)
	}
}

func TestHasRequiredFields(t *testing.T) {
	if manifest.HasRequiredFields(&catalog.Track{OriginalTitle: "A"}) {
		t.Fatal("catalog number is required")
	}
	if manifest.HasRequiredFields(&catalog.Track{CatalogNo: "CAT-001"}) {
		t.Fatal("title is required")
	}
	if !manifest.HasRequiredFields(&catalog.Track{OriginalTitle: "A", CatalogNo: "CAT-001"}) {
		t.Fatal("both fields present should pass")
	}
	if manifest.HasRequiredFields(nil) {
		t.Fatal("nil track should fail")
	}
}

func TestCatalogNumberFallback(t *testing.T) {
	if got := manifest.CatalogNumber(manifest.Row{"Catalog No": "CAT-001"}); got != "CAT-001" {
		t.Fatalf("expected CAT-001, got %q", got)
	}
	if got := manifest.CatalogNumber(manifest.Row{}); got != "unknown" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}
