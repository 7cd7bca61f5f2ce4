package pipeline

import "testing"

func simplePipeline(name string) *Config {
	return &Config{
		Name:   name,
		Inputs: []Field{{Name: "price", Type: TypeF64}},
		Steps: []OpCall{
			{OpName: "abs", OutputVar: "abs_price", Args: []Argument{Var("price", TypeF64)}},
		},
		Outputs: []Field{{Name: "abs_price", Type: TypeF64}},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(simplePipeline("p"))
	b := Fingerprint(simplePipeline("p"))
	if a != b {
		t.Errorf("Fingerprint is not deterministic: %q != %q", a, b)
	}
	if len(a) != FingerprintLen {
		t.Errorf("len(Fingerprint()) = %d, want %d", len(a), FingerprintLen)
	}
}

func TestFingerprintSensitiveToName(t *testing.T) {
	a := Fingerprint(simplePipeline("p1"))
	b := Fingerprint(simplePipeline("p2"))
	if a == b {
		t.Error("Fingerprint did not change when pipeline name changed")
	}
}

func TestFingerprintSensitiveToStepOrder(t *testing.T) {
	cfg := simplePipeline("order")
	cfg.Steps = []OpCall{
		{OpName: "abs", OutputVar: "a", Args: []Argument{Var("price", TypeF64)}},
		{OpName: "sqrt", OutputVar: "b", Args: []Argument{Var("a", TypeF64)}},
	}
	fp1 := Fingerprint(cfg)

	reordered := simplePipeline("order")
	reordered.Steps = []OpCall{
		{OpName: "sqrt", OutputVar: "b", Args: []Argument{Var("a", TypeF64)}},
		{OpName: "abs", OutputVar: "a", Args: []Argument{Var("price", TypeF64)}},
	}
	fp2 := Fingerprint(reordered)

	if fp1 == fp2 {
		t.Error("Fingerprint did not change when step order changed")
	}
}

func TestFingerprintInsensitiveToOutputOrder(t *testing.T) {
	cfg := simplePipeline("outs")
	cfg.Outputs = []Field{
		{Name: "abs_price", Type: TypeF64},
		{Name: "price", Type: TypeF64},
	}
	fp1 := Fingerprint(cfg)

	reordered := simplePipeline("outs")
	reordered.Outputs = []Field{
		{Name: "price", Type: TypeF64},
		{Name: "abs_price", Type: TypeF64},
	}
	fp2 := Fingerprint(reordered)

	if fp1 != fp2 {
		t.Error("Fingerprint changed when only output order changed, but Outputs does not participate in the fingerprint domain")
	}
}

func TestEntrySymbolSanitization(t *testing.T) {
	sanitized := SanitizedFingerprint("123abc")
	if sanitized != "p_123abc" {
		t.Fatalf("SanitizedFingerprint(%q) = %q, want %q", "123abc", sanitized, "p_123abc")
	}
	if got, want := EntrySymbol(sanitized), "pipeline_execute_p_123abc"; got != want {
		t.Errorf("EntrySymbol(%q) = %q, want %q", sanitized, got, want)
	}
}

func TestFingerprintSensitiveToCatalogRevision(t *testing.T) {
	saved := catalogRevision
	defer func() { catalogRevision = saved }()

	catalogRevision = 1
	fp1 := Fingerprint(simplePipeline("rev"))
	catalogRevision = 2
	fp2 := Fingerprint(simplePipeline("rev"))

	if fp1 == fp2 {
		t.Error("Fingerprint did not change when catalog revision changed")
	}
}
