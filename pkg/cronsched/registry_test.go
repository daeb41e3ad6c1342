package cronsched

import "testing"

func TestHandlerRegistry_SetGetDelete(t *testing.T) {
	r := newHandlerRegistry()
	if _, ok := r.get("a"); ok {
		t.Fatal("expected miss on empty registry")
	}

	called := false
	r.set("a", func(string) error { called = true; return nil })

	h, ok := r.get("a")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if err := h("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be invoked")
	}

	r.delete("a")
	if _, ok := r.get("a"); ok {
		t.Error("expected miss after delete")
	}
}

func TestHandlerRegistry_Clear(t *testing.T) {
	r := newHandlerRegistry()
	r.set("a", func(string) error { return nil })
	r.set("b", func(string) error { return nil })

	r.clear()

	if _, ok := r.get("a"); ok {
		t.Error("expected miss for a after clear")
	}
	if _, ok := r.get("b"); ok {
		t.Error("expected miss for b after clear")
	}
}
