package catalogcache_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/catalogcache"
	"ecomigrate/internal/testsupport"
)

func TestCatalogRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRelease(t, cfg, "3.10", []testsupport.Dataset{
		{Activity: "a", Geography: "CH", Product: "p", Unit: "kg", Volume: "30"},
		{Activity: "b", Geography: "RoW", Product: "q", Unit: "MJ"},
	}, nil)
	store := testsupport.NewCatalogCache(t, cfg)
	ctx := context.Background()
	dir := cfg.DatasetsDir("3.10", "cutoff")

	first, err := store.Catalog(ctx, "3.10", "cutoff", dir)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	second, err := store.Catalog(ctx, "3.10", "cutoff", dir)
	if err != nil {
		t.Fatalf("Catalog (cached): %v", err)
	}
	if second.Name() != "ecoinvent-3.10-cutoff" || second.Len() != 2 {
		t.Fatalf("unexpected cached catalog %s with %d entries", second.Name(), second.Len())
	}
	for i, e := range first.Entries() {
		if second.Entries()[i] != e {
			t.Fatalf("entry %d differs: %+v vs %+v", i, e, second.Entries()[i])
		}
	}
	entry, ok := second.Lookup(catalog.Key{ActivityName: "a", Geography: "CH", ProductName: "p", Unit: "kg"})
	if !ok || entry.ProductionVolume != 30 {
		t.Fatalf("lookup = %+v, %v", entry, ok)
	}

	snaps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Kind != catalogcache.KindDatasets || snaps[0].Entries != 2 ||
		snaps[0].Fingerprint.Files != 2 || snaps[0].Fingerprint.Size <= 0 {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}
}

func TestCatalogReparsesChangedDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRelease(t, cfg, "3.10", []testsupport.Dataset{
		{Activity: "a", Geography: "CH", Product: "p", Unit: "kg", Volume: "1"},
	}, nil)
	store := testsupport.NewCatalogCache(t, cfg)
	ctx := context.Background()
	dir := cfg.DatasetsDir("3.10", "cutoff")

	if _, err := store.Catalog(ctx, "3.10", "cutoff", dir); err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	testsupport.WriteRelease(t, cfg, "3.10", []testsupport.Dataset{
		{Activity: "a", Geography: "CH", Product: "p", Unit: "kg", Volume: "1"},
		{Activity: "c", Geography: "DE", Product: "p", Unit: "kg", Volume: "2"},
	}, nil)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "0001.spold"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cat, err := store.Catalog(ctx, "3.10", "cutoff", dir)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected reparsed catalog with 2 entries, got %d", cat.Len())
	}
	snaps, err := store.List(ctx)
	if err != nil || len(snaps) != 1 {
		t.Fatalf("stale snapshot must be replaced: %+v %v", snaps, err)
	}
}

func TestFlowsAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRelease(t, cfg, "3.10", nil, []testsupport.Flow{
		{UUID: "u1", Name: "Water", Unit: "m3"},
		{UUID: "u2", Name: "Lead", Formula: "Pb", Unit: "kg"},
	})
	store := testsupport.NewCatalogCache(t, cfg)
	ctx := context.Background()
	path := cfg.FlowsPath("3.10", "cutoff")

	for i := 0; i < 2; i++ {
		listing, err := store.Flows(ctx, "3.10", "cutoff", path)
		if err != nil {
			t.Fatalf("Flows: %v", err)
		}
		lead, ok := listing.Lookup("u2")
		if listing.Len() != 2 || !ok || lead.Formula != "Pb" {
			t.Fatalf("pass %d: unexpected listing %+v", i, listing.Flows())
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := store.List(ctx)
	if err != nil || len(snaps) != 1 {
		t.Fatalf("List = %+v, %v", snaps, err)
	}
	if fp := snaps[0].Fingerprint; fp.Files != 1 || fp.Size != info.Size() {
		t.Fatalf("flow listing fingerprint = %+v, want 1 file of %d bytes", fp, info.Size())
	}

	removed, err := store.Clear(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Clear = %d, %v", removed, err)
	}
	snaps, err = store.List(ctx)
	if err != nil || len(snaps) != 0 {
		t.Fatalf("cache not empty after clear: %+v %v", snaps, err)
	}
}

func TestCatalogMissingDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewCatalogCache(t, cfg)
	_, err := store.Catalog(context.Background(), "9.9", "cutoff", cfg.DatasetsDir("9.9", "cutoff"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOpenRebuildsOutdatedCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRelease(t, cfg, "3.10", []testsupport.Dataset{
		{Activity: "a", Geography: "CH", Product: "p", Unit: "kg", Volume: "1"},
	}, nil)
	path := cfg.CatalogCachePath()
	ctx := context.Background()

	store, err := catalogcache.Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Catalog(ctx, "3.10", "cutoff", cfg.DatasetsDir("3.10", "cutoff")); err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 1"); err != nil {
		t.Fatalf("downgrade schema: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := catalogcache.Open(path, nil)
	if err != nil {
		t.Fatalf("outdated cache should be rebuilt, got %v", err)
	}
	defer reopened.Close()
	snaps, err := reopened.List(ctx)
	if err != nil || len(snaps) != 0 {
		t.Fatalf("rebuilt cache should be empty: %+v %v", snaps, err)
	}
	cat, err := reopened.Catalog(ctx, "3.10", "cutoff", cfg.DatasetsDir("3.10", "cutoff"))
	if err != nil || cat.Len() != 1 {
		t.Fatalf("rebuilt cache should accept new snapshots: %v", err)
	}
}
