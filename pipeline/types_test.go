package pipeline

import "testing"

func TestSanitizeIdent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123abc", "p_123abc"},
		{"abc123", "abc123"},
		{"a-b.c", "a_b_c"},
		{"", "p_"},
		{"_already_ok_", "_already_ok_"},
		{"9", "p_9"},
	}
	for _, c := range cases {
		if got := SanitizeIdent(c.in); got != c.want {
			t.Errorf("SanitizeIdent(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValueCoercion(t *testing.T) {
	v := NewI32(7)
	if got := v.AsF64(); got != 7 {
		t.Errorf("AsF64() = %v, want 7", got)
	}
	if got := v.AsI64(); got != 7 {
		t.Errorf("AsI64() = %v, want 7", got)
	}

	f := NewF64(3.5)
	if got := f.AsI64(); got != 3 {
		t.Errorf("AsI64() on f64 = %v, want 3", got)
	}

	s := NewStr("hello")
	if got := s.AsF64(); got != 0 {
		t.Errorf("AsF64() on str = %v, want 0", got)
	}
}

func TestParseLiteral(t *testing.T) {
	v, err := ParseLiteral("42", TypeI64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != 42 {
		t.Errorf("Int() = %v, want 42", v.Int())
	}

	if _, err := ParseLiteral("not-a-number", TypeI64); err == nil {
		t.Error("expected error parsing malformed i64 literal")
	}

	if _, err := ParseLiteral("x", TypeListI64); err == nil {
		t.Error("expected error: list types have no literal form")
	}
}

func TestTypeHelpers(t *testing.T) {
	if !TypeListI64.IsList() {
		t.Error("TypeListI64.IsList() = false, want true")
	}
	if TypeListI64.ElementType() != TypeI64 {
		t.Errorf("TypeListI64.ElementType() = %v, want TypeI64", TypeListI64.ElementType())
	}
	if !TypeF64.IsNumeric() || TypeStr.IsNumeric() {
		t.Error("IsNumeric misclassified a scalar type")
	}
	if !TypeF64.Valid() || Type("bogus").Valid() {
		t.Error("Valid misclassified a type tag")
	}
}
