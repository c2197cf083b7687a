package testsupport

import (
	"testing"

	"ecomigrate/internal/catalogcache"
	"ecomigrate/internal/config"
)

// NewCatalogCache opens the configured catalog cache and closes it when the
// test ends.
func NewCatalogCache(t testing.TB, cfg *config.Config) *catalogcache.Store {
	t.Helper()
	store, err := catalogcache.Open(cfg.CatalogCachePath(), nil)
	if err != nil {
		t.Fatalf("open catalog cache: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
