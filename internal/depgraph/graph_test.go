package depgraph

import "testing"

func TestCheckAcyclicValidGraph(t *testing.T) {
	edges := map[string][]string{
		"lead":    {"worker1", "worker2"},
		"worker1": {},
		"worker2": {},
	}
	if err := CheckAcyclic(edges, "lead"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckAcyclicDetectsCycle(t *testing.T) {
	edges := map[string][]string{
		"lead":    {"worker1"},
		"worker1": {"worker2"},
		"worker2": {"lead"},
	}
	err := CheckAcyclic(edges, "lead")
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	want := "Circular dependency detected: lead -> worker1 -> worker2 -> lead"
	if got := err.Error(); got != "config_error: "+want {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestCheckAcyclicSelfEdge(t *testing.T) {
	edges := map[string][]string{
		"lead": {"lead"},
	}
	err := CheckAcyclic(edges, "lead")
	if err == nil {
		t.Fatal("expected cycle error for self edge")
	}
}

func TestCheckAcyclicUnknownTarget(t *testing.T) {
	edges := map[string][]string{
		"lead": {"ghost"},
	}
	err := CheckAcyclic(edges, "lead")
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestCheckAcyclicDiamondIsNotACycle(t *testing.T) {
	edges := map[string][]string{
		"lead": {"a", "b"},
		"a":    {"c"},
		"b":    {"c"},
		"c":    {},
	}
	if err := CheckAcyclic(edges, "lead"); err != nil {
		t.Fatalf("diamond shape should not be flagged as cyclic: %v", err)
	}
}
