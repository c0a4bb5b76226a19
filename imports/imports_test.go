package imports

import "testing"

func TestTopologicalSortOrdersDependenciesFirst(t *testing.T) {
	g := New("a")
	must(t, g.AddEdge("a", "b"))
	must(t, g.AddEdge("b", "c"))

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	pos := make(map[string]int, len(order))
	for i, p := range order {
		pos[p] = i
	}
	if pos["c"] > pos["b"] || pos["b"] > pos["a"] {
		t.Errorf("expected order c, b, a (dependencies first), got %v", order)
	}
}

func TestAddEdgeRejectsCycle(t *testing.T) {
	g := New("a")
	must(t, g.AddEdge("a", "b"))
	must(t, g.AddEdge("b", "c"))
	if err := g.AddEdge("c", "a"); err == nil {
		t.Error("expected a circular import to be rejected")
	}

	// The rejected edge must have been rolled back: c should still have no
	// path back to a.
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort after rejected cycle: %v", err)
	}
	if len(order) != 3 {
		t.Errorf("expected exactly 3 nodes after the rollback, got %d: %v", len(order), order)
	}
}

func TestStoreAndFetchMetadata(t *testing.T) {
	g := New("a")
	g.StoreMetadata("a", nil, []string{"f"})
	meta, ok := g.Metadata("a")
	if !ok {
		t.Fatal("expected metadata to be retrievable after StoreMetadata")
	}
	if len(meta.PublicFunctions) != 1 || meta.PublicFunctions[0] != "f" {
		t.Errorf("got %#v", meta.PublicFunctions)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
