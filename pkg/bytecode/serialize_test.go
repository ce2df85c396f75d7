package bytecode

import "testing"

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{
			{Op: PUSH_NUM, Num: 3},
			{Op: PUSH_STR, U16: 0},
			{Op: PUSH_BOOL, BoolVal: true},
			{Op: PUSH_VAR, U16: 1},
			{Op: JUMP, U16: 0},
			{Op: CALL, U16: 2},
			{Op: GET_PROP, U16: 0},
			{Op: NEW_ARRAY, U16: 2},
			{Op: HALT},
		},
		StringPool:    []string{"hello", "world"},
		VariableNames: []string{"x", "y"},
		PropertyNames: []string{"name"},
		FunctionNames: []string{"a", "b", "echo"},
	}

	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if len(got.Instructions) != len(p.Instructions) {
		t.Fatalf("instruction count mismatch: got %d want %d", len(got.Instructions), len(p.Instructions))
	}
	for i := range p.Instructions {
		if got.Instructions[i] != p.Instructions[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, got.Instructions[i], p.Instructions[i])
		}
	}
	assertStrSlice(t, "StringPool", got.StringPool, p.StringPool)
	assertStrSlice(t, "VariableNames", got.VariableNames, p.VariableNames)
	assertStrSlice(t, "PropertyNames", got.PropertyNames, p.PropertyNames)
	assertStrSlice(t, "FunctionNames", got.FunctionNames, p.FunctionNames)
}

func assertStrSlice(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length mismatch: got %d want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: got %q, want %q", label, i, got[i], want[i])
		}
	}
}

func TestDeserializeBadMagic(t *testing.T) {
	if _, err := Deserialize([]byte{0, 0, 0, 0}); err == nil {
		t.Fatal("expected error for bad magic, got nil")
	}
}

func TestDeserializeTruncated(t *testing.T) {
	p := &Program{Instructions: []Instruction{{Op: HALT}}}
	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if _, err := Deserialize(data[:len(data)-1]); err == nil {
		t.Fatal("expected error for truncated data, got nil")
	}
}
