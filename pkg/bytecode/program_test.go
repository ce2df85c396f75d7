package bytecode

import "testing"

func TestDisassemble(t *testing.T) {
	p := &Program{
		StringPool:    []string{"hi"},
		VariableNames: []string{"x"},
		Instructions: []Instruction{
			{Op: PUSH_STR, U16: 0},
			{Op: SET_VAR, U16: 0},
			{Op: HALT},
		},
	}
	out := p.Disassemble()
	if out == "" {
		t.Fatal("expected non-empty disassembly")
	}
	if !contains(out, "PUSH_STR") || !contains(out, "hi") || !contains(out, "SET_VAR") || !contains(out, "x") {
		t.Fatalf("disassembly missing expected mnemonics/operands: %q", out)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
