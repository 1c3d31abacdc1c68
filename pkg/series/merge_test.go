package series

import "testing"

func TestMerge(t *testing.T) {
	base := Set{
		"a": {"2024-01": Float(1), "2024-02": Float(2)},
	}
	update := Set{
		"a": {"2024-02": Float(20), "2024-03": Float(3)},
		"b": {"2024-03": nil},
	}

	merged := Merge(base, update)

	if v, _ := merged["a"].Value("2024-01"); v != 1 {
		t.Errorf("a 2024-01 = %v, want 1", v)
	}
	if v, _ := merged["a"].Value("2024-02"); v != 20 {
		t.Errorf("a 2024-02 = %v, want 20", v)
	}
	if v, _ := merged["a"].Value("2024-03"); v != 3 {
		t.Errorf("a 2024-03 = %v, want 3", v)
	}
	if _, ok := merged["b"]; !ok {
		t.Error("expected metric b to be added")
	}

	// Inputs are untouched.
	if v, _ := base["a"].Value("2024-02"); v != 2 {
		t.Errorf("base mutated: a 2024-02 = %v", v)
	}
}

func TestDiffStats(t *testing.T) {
	base := Set{"a": {"2024-01": Float(1), "2024-02": Float(2)}}
	update := Set{
		"a": {"2024-01": Float(1), "2024-02": Float(5)},
		"b": {"2024-01": Float(1)},
	}

	stats := DiffStats(base, update)
	if stats.AddedMetrics != 1 {
		t.Errorf("AddedMetrics = %d, want 1", stats.AddedMetrics)
	}
	if stats.UpdatedMonths != 2 {
		t.Errorf("UpdatedMonths = %d, want 2", stats.UpdatedMonths)
	}
}
