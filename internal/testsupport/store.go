package testsupport

import (
	"testing"

	"matscribe/internal/state"
)

// OpenStore opens a state store in a fresh temp directory and closes it when
// the test finishes.
func OpenStore(t testing.TB) *state.Store {
	t.Helper()

	store, err := state.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close state store: %v", err)
		}
	})
	return store
}
