package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary format constants (spec §6). Big-endian throughout.
const (
	magic          uint32 = 0x4D434243 // "MCBC"
	formatVersion  uint16 = 1
	maxPoolEntries        = 1 << 16
)

// Serialize encodes p into the binary format: magic | version | 5 pool/
// instruction counts (u16 each) | instructions | length-prefixed string,
// variable-name, property-name, and function-name pools.
func (p *Program) Serialize() ([]byte, error) {
	if len(p.Instructions) >= maxPoolEntries || len(p.StringPool) >= maxPoolEntries ||
		len(p.VariableNames) >= maxPoolEntries || len(p.PropertyNames) >= maxPoolEntries ||
		len(p.FunctionNames) >= maxPoolEntries {
		return nil, fmt.Errorf("bytecode: pool too large to serialize")
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, magic)
	_ = binary.Write(&buf, binary.BigEndian, formatVersion)
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(p.Instructions)))
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(p.StringPool)))
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(p.VariableNames)))
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(p.PropertyNames)))
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(p.FunctionNames)))

	for _, instr := range p.Instructions {
		buf.WriteByte(byte(instr.Op))
		switch operandKind(instr.Op) {
		case OperandNumber:
			_ = binary.Write(&buf, binary.BigEndian, instr.Num)
		case OperandBool:
			if instr.BoolVal {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case OperandStringIndex, OperandVarIndex, OperandJumpAddr, OperandFuncIndex, OperandPropIndex, OperandCount:
			_ = binary.Write(&buf, binary.BigEndian, instr.U16)
		}
	}

	for _, pool := range [][]string{p.StringPool, p.VariableNames, p.PropertyNames, p.FunctionNames} {
		for _, s := range pool {
			if len(s) >= maxPoolEntries {
				return nil, fmt.Errorf("bytecode: pool string too long")
			}
			_ = binary.Write(&buf, binary.BigEndian, uint16(len(s)))
			buf.WriteString(s)
		}
	}

	return buf.Bytes(), nil
}

// Deserialize decodes a Program previously produced by Serialize.
// Deserialize(Serialize(p)) == p for any well-formed p (spec §8 invariant).
func Deserialize(data []byte) (*Program, error) {
	r := bytes.NewReader(data)

	var gotMagic uint32
	if err := binary.Read(r, binary.BigEndian, &gotMagic); err != nil {
		return nil, fmt.Errorf("bytecode: truncated header: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("bytecode: bad magic %#x", gotMagic)
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("bytecode: unsupported version %d", version)
	}

	var instrCount, stringCount, varCount, propCount, funcCount uint16
	for _, c := range []*uint16{&instrCount, &stringCount, &varCount, &propCount, &funcCount} {
		if err := binary.Read(r, binary.BigEndian, c); err != nil {
			return nil, fmt.Errorf("bytecode: truncated counts: %w", err)
		}
	}

	p := &Program{Instructions: make([]Instruction, instrCount)}
	for i := range p.Instructions {
		opByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("bytecode: truncated instruction %d: %w", i, err)
		}
		instr := Instruction{Op: Opcode(opByte)}
		switch operandKind(instr.Op) {
		case OperandNumber:
			if err := binary.Read(r, binary.BigEndian, &instr.Num); err != nil {
				return nil, fmt.Errorf("bytecode: truncated operand at %d: %w", i, err)
			}
		case OperandBool:
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("bytecode: truncated operand at %d: %w", i, err)
			}
			instr.BoolVal = b != 0
		case OperandStringIndex, OperandVarIndex, OperandJumpAddr, OperandFuncIndex, OperandPropIndex, OperandCount:
			if err := binary.Read(r, binary.BigEndian, &instr.U16); err != nil {
				return nil, fmt.Errorf("bytecode: truncated operand at %d: %w", i, err)
			}
		}
		p.Instructions[i] = instr
	}

	var err error
	if p.StringPool, err = readPool(r, stringCount); err != nil {
		return nil, err
	}
	if p.VariableNames, err = readPool(r, varCount); err != nil {
		return nil, err
	}
	if p.PropertyNames, err = readPool(r, propCount); err != nil {
		return nil, err
	}
	if p.FunctionNames, err = readPool(r, funcCount); err != nil {
		return nil, err
	}
	return p, nil
}

func readPool(r io.Reader, count uint16) ([]string, error) {
	out := make([]string, count)
	for i := range out {
		var l uint16
		if err := binary.Read(r, binary.BigEndian, &l); err != nil {
			return nil, fmt.Errorf("bytecode: truncated pool entry %d: %w", i, err)
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("bytecode: truncated pool entry %d: %w", i, err)
		}
		out[i] = string(buf)
	}
	return out, nil
}
