package bytecode

import (
	"fmt"

	"github.com/stacklok/edgemcp/pkg/jsonval"
)

// CompileJSON compiles a program described as
//
//	{"instructions":[{"op":"PUSH_NUM","value":1}, ...],
//	 "stringPool":[...], "variableNames":[...], "propertyNames":[...], "functionNames":[...]}
//
// into a Program. Per spec §4.D, an unknown opcode or a malformed operand is
// not a panic: CompileJSON returns (nil, diagnostic) so the caller (the
// tool registry's system.defineTool handler) can surface InvalidParams.
func CompileJSON(source string) (*Program, error) {
	doc, err := jsonval.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}

	p := &Program{
		StringPool:    stringArray(doc, "stringPool"),
		VariableNames: stringArray(doc, "variableNames"),
		PropertyNames: stringArray(doc, "propertyNames"),
		FunctionNames: stringArray(doc, "functionNames"),
	}

	instrArr, ok := doc.GetArray("instructions")
	if !ok {
		return nil, fmt.Errorf("bytecode: missing instructions array")
	}
	n := instrArr.ArrayLength()
	p.Instructions = make([]Instruction, 0, n)
	for i := 0; i < n; i++ {
		obj, ok := instrArr.ArrayGetObject(i)
		if !ok {
			return nil, fmt.Errorf("bytecode: instructions[%d] is not an object", i)
		}
		opName, ok := obj.GetString("op")
		if !ok {
			return nil, fmt.Errorf("bytecode: instructions[%d] missing op", i)
		}
		op, ok := opcodeValues[opName]
		if !ok {
			return nil, fmt.Errorf("bytecode: instructions[%d] unknown opcode %q", i, opName)
		}

		instr := Instruction{Op: op}
		switch operandKind(op) {
		case OperandNumber:
			instr.Num = obj.GetFloat("value", 0)
		case OperandBool:
			instr.BoolVal = obj.GetBool("value", false)
		case OperandStringIndex:
			idx := obj.GetInt("value", -1)
			if idx < 0 || idx >= len(p.StringPool) {
				return nil, fmt.Errorf("bytecode: instructions[%d] string index %d out of range", i, idx)
			}
			instr.U16 = uint16(idx)
		case OperandVarIndex:
			idx := obj.GetInt("value", -1)
			if idx < 0 || idx >= len(p.VariableNames) {
				return nil, fmt.Errorf("bytecode: instructions[%d] variable index %d out of range", i, idx)
			}
			instr.U16 = uint16(idx)
		case OperandFuncIndex:
			idx := obj.GetInt("value", -1)
			if idx < 0 || idx >= len(p.FunctionNames) {
				return nil, fmt.Errorf("bytecode: instructions[%d] function index %d out of range", i, idx)
			}
			instr.U16 = uint16(idx)
		case OperandPropIndex:
			idx := obj.GetInt("value", -1)
			if idx < 0 || idx >= len(p.PropertyNames) {
				return nil, fmt.Errorf("bytecode: instructions[%d] property index %d out of range", i, idx)
			}
			instr.U16 = uint16(idx)
		case OperandJumpAddr, OperandCount:
			idx := obj.GetInt("value", -1)
			if idx < 0 {
				return nil, fmt.Errorf("bytecode: instructions[%d] negative operand", i)
			}
			instr.U16 = uint16(idx)
		}
		p.Instructions = append(p.Instructions, instr)
	}

	return p, nil
}

func stringArray(doc jsonval.Value, field string) []string {
	arr, ok := doc.GetArray(field)
	if !ok {
		return nil
	}
	n := arr.ArrayLength()
	out := make([]string, 0, n)
	// ArrayGetObject only yields object elements; string pools are arrays of
	// plain strings, so walk them with ArrayElementString. Non-string
	// elements are skipped.
	for i := 0; i < n; i++ {
		if s, ok := arr.ArrayElementString(i); ok {
			out = append(out, s)
		}
	}
	return out
}
