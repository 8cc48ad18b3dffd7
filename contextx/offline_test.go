package contextx

import "testing"

func TestOfflineFromContext(t *testing.T) {
	ctx := t.Context()
	if OfflineFromContext(ctx) {
		t.Fatal("plain context must not be offline")
	}
	if !OfflineFromContext(WithOffline(ctx)) {
		t.Fatal("derived context must be offline")
	}
	// The override does not leak back to the parent.
	if OfflineFromContext(ctx) {
		t.Fatal("parent context must stay unaffected")
	}
}
