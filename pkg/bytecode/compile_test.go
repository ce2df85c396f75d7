package bytecode

import "testing"

func TestCompileJSON_Arithmetic(t *testing.T) {
	src := `{
		"instructions": [
			{"op":"PUSH_NUM","value":3},
			{"op":"PUSH_NUM","value":4},
			{"op":"ADD"},
			{"op":"HALT"}
		]
	}`
	p, err := CompileJSON(src)
	if err != nil {
		t.Fatalf("CompileJSON: %v", err)
	}
	got, err := Run(p, nil, nil, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Num != 7 {
		t.Fatalf("got %v, want 7", got.Num)
	}
}

func TestCompileJSON_StringsAndVars(t *testing.T) {
	src := `{
		"variableNames": ["greeting"],
		"stringPool": ["hi"],
		"instructions": [
			{"op":"PUSH_STR","value":0},
			{"op":"SET_VAR","value":0},
			{"op":"PUSH_VAR","value":0},
			{"op":"HALT"}
		]
	}`
	p, err := CompileJSON(src)
	if err != nil {
		t.Fatalf("CompileJSON: %v", err)
	}
	if len(p.VariableNames) != 1 || p.VariableNames[0] != "greeting" {
		t.Fatalf("variableNames not parsed: %+v", p.VariableNames)
	}
	got, err := Run(p, nil, nil, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Kind != StringKind || got.Str != "hi" {
		t.Fatalf("got %+v, want \"hi\"", got)
	}
}

func TestCompileJSON_UnknownOpcode(t *testing.T) {
	src := `{"instructions":[{"op":"FROB"}]}`
	if _, err := CompileJSON(src); err == nil {
		t.Fatal("expected error for unknown opcode, got nil")
	}
}

func TestCompileJSON_OutOfRangeIndex(t *testing.T) {
	src := `{"instructions":[{"op":"PUSH_STR","value":5}]}`
	if _, err := CompileJSON(src); err == nil {
		t.Fatal("expected error for out-of-range string index, got nil")
	}
}

func TestCompileJSON_MalformedEnvelope(t *testing.T) {
	if _, err := CompileJSON("not json"); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}
