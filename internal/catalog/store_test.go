package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"tracklift/internal/catalog"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.OpenPath(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestCreateAssignsDefaults(t *testing.T) {
	store := openStore(t)

	created, err := store.Create(context.Background(), &catalog.Track{
		OriginalTitle:    "Night Drive",
		CatalogNo:        "CAT-001",
		ISRC:             "HUA110300001",
		ArchiveProcessed: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}
	if created.MigrationStatus != catalog.MigrationStatusPending {
		t.Fatalf("expected pending status, got %q", created.MigrationStatus)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestCreateRequiresTitleAndCatalogNo(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, &catalog.Track{CatalogNo: "CAT-001"}); err == nil {
		t.Fatal("expected error without title")
	}
	if _, err := store.Create(ctx, &catalog.Track{OriginalTitle: "Night Drive"}); err == nil {
		t.Fatal("expected error without catalog number")
	}
}

func TestExistingISRCsUppercasesAndSkipsEmpty(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, track := range []*catalog.Track{
		{OriginalTitle: "A", CatalogNo: "CAT-001", ISRC: "hua110300001"},
		{OriginalTitle: "B", CatalogNo: "CAT-001", ISRC: "HUA110300002"},
		{OriginalTitle: "C", CatalogNo: "CAT-001"},
	} {
		if _, err := store.Create(ctx, track); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	set, err := store.ExistingISRCs(ctx)
	if err != nil {
		t.Fatalf("ExistingISRCs failed: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 ISRCs, got %d", len(set))
	}
	if _, ok := set["HUA110300001"]; !ok {
		t.Fatal("expected lowercase ISRC to be uppercased in the snapshot")
	}
	if _, ok := set["HUA110300002"]; !ok {
		t.Fatal("expected HUA110300002 in the snapshot")
	}
}

func TestListByCatalogNo(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, track := range []*catalog.Track{
		{OriginalTitle: "A", CatalogNo: "CAT-001"},
		{OriginalTitle: "B", CatalogNo: "CAT-002"},
		{OriginalTitle: "C", CatalogNo: "CAT-001"},
	} {
		if _, err := store.Create(ctx, track); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tracks, err := store.ListByCatalogNo(ctx, "CAT-001")
	if err != nil {
		t.Fatalf("ListByCatalogNo failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].OriginalTitle != "A" || tracks[1].OriginalTitle != "C" {
		t.Fatalf("expected oldest-first order, got %q then %q",
			tracks[0].OriginalTitle, tracks[1].OriginalTitle)
	}
}

func TestListRespectsLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		if _, err := store.Create(ctx, &catalog.Track{OriginalTitle: title, CatalogNo: "CAT-001"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tracks, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].OriginalTitle != "C" {
		t.Fatalf("expected newest track first, got %q", tracks[0].OriginalTitle)
	}

	count, err := store.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 tracks total, got %d", count)
	}
}

func TestNullableFieldsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &catalog.Track{
		OriginalTitle: "Night Drive",
		CatalogNo:     "CAT-001",
		Genre:         "house",
		UPC:           "5999000000001",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tracks, err := store.ListByCatalogNo(ctx, "CAT-001")
	if err != nil {
		t.Fatalf("ListByCatalogNo failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	got := tracks[0]
	if got.ID != created.ID || got.Genre != "house" || got.UPC != "5999000000001" {
		t.Fatalf("unexpected track: %#v", got)
	}
	if got.Composer != "" || got.ReleaseDate != "" {
		t.Fatalf("expected empty optional fields, got %#v", got)
	}
}
