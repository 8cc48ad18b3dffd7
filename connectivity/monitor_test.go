package connectivity

import "testing"

func TestFlag_StartsActive(t *testing.T) {
	f := NewFlag()
	if !f.IsNetworkActive() {
		t.Fatal("NewFlag must start active")
	}
}

func TestFlag_Toggle(t *testing.T) {
	f := NewFlag()
	f.SetInactive()
	if f.IsNetworkActive() {
		t.Fatal("expected inactive")
	}
	f.SetActive()
	if !f.IsNetworkActive() {
		t.Fatal("expected active")
	}
	// Idempotent transitions.
	f.SetActive()
	if !f.IsNetworkActive() {
		t.Fatal("expected still active")
	}
}

func TestFlag_ZeroValueInactive(t *testing.T) {
	var f Flag
	if f.IsNetworkActive() {
		t.Fatal("zero Flag must report inactive")
	}
}
