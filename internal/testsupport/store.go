package testsupport

import (
	"testing"

	"seqlink/internal/config"
	"seqlink/internal/indexstore"
)

// MustOpenStore opens an indexstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *indexstore.Store {
	t.Helper()

	store, err := indexstore.Open(cfg)
	if err != nil {
		t.Fatalf("indexstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
