package bytecode

import (
	"fmt"
	"strconv"
)

// Program is a complete bytecode program (spec §3 BytecodeProgram): an
// instruction stream plus the read-only pools its operands index into.
type Program struct {
	Instructions  []Instruction
	StringPool    []string
	VariableNames []string
	PropertyNames []string
	FunctionNames []string
}

// Disassemble renders a human-readable instruction listing, used by the
// debugging tool system.disassembleBytecode (SPEC_FULL.md supplement 4).
func (p *Program) Disassemble() string {
	var out []byte
	for i, instr := range p.Instructions {
		out = append(out, []byte(disasmLine(i, instr, p))...)
		out = append(out, '\n')
	}
	return string(out)
}

func disasmLine(i int, instr Instruction, p *Program) string {
	line := strconv.Itoa(i) + ": " + instr.Op.String()
	switch operandKind(instr.Op) {
	case OperandNumber:
		line += " " + fmt.Sprintf("%g", instr.Num)
	case OperandStringIndex:
		line += " #" + strconv.Itoa(int(instr.U16))
		if int(instr.U16) < len(p.StringPool) {
			line += " (" + p.StringPool[instr.U16] + ")"
		}
	case OperandBool:
		if instr.BoolVal {
			line += " true"
		} else {
			line += " false"
		}
	case OperandVarIndex:
		line += " $" + strconv.Itoa(int(instr.U16))
		if int(instr.U16) < len(p.VariableNames) {
			line += " (" + p.VariableNames[instr.U16] + ")"
		}
	case OperandJumpAddr:
		line += " ->" + strconv.Itoa(int(instr.U16))
	case OperandFuncIndex:
		line += " fn#" + strconv.Itoa(int(instr.U16))
		if int(instr.U16) < len(p.FunctionNames) {
			line += " (" + p.FunctionNames[instr.U16] + ")"
		}
	case OperandPropIndex:
		line += " prop#" + strconv.Itoa(int(instr.U16))
		if int(instr.U16) < len(p.PropertyNames) {
			line += " (" + p.PropertyNames[instr.U16] + ")"
		}
	case OperandCount:
		line += " x" + strconv.Itoa(int(instr.U16))
	}
	return line
}
