package keymap

import "testing"

func TestRegisterDefaultsAndLookup(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if cmd, ok := r.Lookup("list", "n"); !ok || cmd != "create" {
		t.Fatalf("Lookup(list,n) = %q,%v, want create,true", cmd, ok)
	}
	if cmd, ok := r.Lookup("global", "q"); !ok || cmd != "quit" {
		t.Fatalf("Lookup(global,q) = %q,%v, want quit,true", cmd, ok)
	}
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("list", "x"); ok {
		t.Fatalf("expected no binding for unregistered key")
	}
}

func TestRegisterBindingOverwritesSameContextAndKey(t *testing.T) {
	r := NewRegistry()
	r.RegisterBinding(Binding{Key: "q", Command: "quit", Context: "list"})
	r.RegisterBinding(Binding{Key: "q", Command: "cancel", Context: "list"})

	cmd, ok := r.Lookup("list", "q")
	if !ok || cmd != "cancel" {
		t.Fatalf("Lookup after overwrite = %q,%v, want cancel,true", cmd, ok)
	}
}
