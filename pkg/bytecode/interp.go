package bytecode

import (
	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// DefaultMaxSteps is the instruction-count budget beyond which a run fails
// with Timeout (spec §4.D: "default 100,000").
const DefaultMaxSteps = 100_000

// DefaultMaxStackDepth bounds the operand stack (spec §4.D: "default 256").
const DefaultMaxStackDepth = 256

// ToolInvoker dispatches a CALL instruction's function_names[index] lookup
// against the registered tool namespace. The tool registry implements this
// so the bytecode package never imports it back (avoiding an import cycle:
// toolregistry already imports bytecode to execute Bytecode-kind tools).
type ToolInvoker interface {
	InvokeTool(name string, paramsJSON string) (mcpstatus.ToolResult, error)
}

// RunOptions bounds one interpreter run. Zero values fall back to the
// package defaults.
type RunOptions struct {
	MaxSteps      int
	MaxStackDepth int
}

func (o RunOptions) maxSteps() int {
	if o.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return o.MaxSteps
}

func (o RunOptions) maxStackDepth() int {
	if o.MaxStackDepth <= 0 {
		return DefaultMaxStackDepth
	}
	return o.MaxStackDepth
}

// Run executes p to completion (RETURN or HALT), a step-budget Timeout, or
// an ExecutionError (stack overflow, type mismatch, division by zero,
// unresolved CALL, or a failing sub-tool result). locals seeds the local
// variable array positionally: locals[i] corresponds to p.VariableNames[i];
// missing trailing entries default to Null.
func Run(p *Program, locals []Value, invoker ToolInvoker, opts RunOptions) (Value, error) {
	maxSteps := opts.maxSteps()
	maxDepth := opts.maxStackDepth()

	vars := make([]Value, len(p.VariableNames))
	copy(vars, locals)

	var stack []Value
	push := func(v Value) error {
		if len(stack) >= maxDepth {
			return errors.NewExecutionError("bytecode stack overflow", nil)
		}
		stack = append(stack, v)
		return nil
	}
	pop := func() (Value, error) {
		if len(stack) == 0 {
			return Value{}, errors.NewExecutionError("bytecode stack underflow", nil)
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	pc := 0
	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return Value{}, errors.NewTimeoutError("bytecode step budget exceeded", nil)
		}
		if pc < 0 || pc >= len(p.Instructions) {
			return Value{}, errors.NewExecutionError("bytecode program counter out of range", nil)
		}
		instr := p.Instructions[pc]
		next := pc + 1

		switch instr.Op {
		case NOP:
			// no-op

		case PUSH_NUM:
			if err := push(NumValue(instr.Num)); err != nil {
				return Value{}, err
			}
		case PUSH_STR:
			s, err := poolString(p.StringPool, instr.U16)
			if err != nil {
				return Value{}, err
			}
			if err := push(StrValue(s)); err != nil {
				return Value{}, err
			}
		case PUSH_BOOL:
			if err := push(BoolValue(instr.BoolVal)); err != nil {
				return Value{}, err
			}
		case PUSH_VAR:
			if int(instr.U16) >= len(vars) {
				return Value{}, errors.NewExecutionError("bytecode variable index out of range", nil)
			}
			if err := push(vars[instr.U16].Clone()); err != nil {
				return Value{}, err
			}
		case SET_VAR:
			v, err := pop()
			if err != nil {
				return Value{}, err
			}
			if int(instr.U16) >= len(vars) {
				return Value{}, errors.NewExecutionError("bytecode variable index out of range", nil)
			}
			vars[instr.U16] = v
		case POP:
			if _, err := pop(); err != nil {
				return Value{}, err
			}

		case ADD, SUB, MUL, DIV, MOD:
			b, err := pop()
			if err != nil {
				return Value{}, err
			}
			a, err := pop()
			if err != nil {
				return Value{}, err
			}
			if a.Kind != NumberKind || b.Kind != NumberKind {
				return Value{}, errors.NewExecutionError("arithmetic operand is not a number", nil)
			}
			var r float64
			switch instr.Op {
			case ADD:
				r = a.Num + b.Num
			case SUB:
				r = a.Num - b.Num
			case MUL:
				r = a.Num * b.Num
			case DIV:
				if b.Num == 0 {
					return Value{}, errors.NewExecutionError("division by zero", nil)
				}
				r = a.Num / b.Num
			case MOD:
				if b.Num == 0 {
					return Value{}, errors.NewExecutionError("division by zero", nil)
				}
				r = float64(int64(a.Num) % int64(b.Num))
			}
			if err := push(NumValue(r)); err != nil {
				return Value{}, err
			}

		case EQ, NEQ:
			b, err := pop()
			if err != nil {
				return Value{}, err
			}
			a, err := pop()
			if err != nil {
				return Value{}, err
			}
			eq := a.Equal(b)
			if instr.Op == NEQ {
				eq = !eq
			}
			if err := push(BoolValue(eq)); err != nil {
				return Value{}, err
			}

		case GT, LT, GTE, LTE:
			b, err := pop()
			if err != nil {
				return Value{}, err
			}
			a, err := pop()
			if err != nil {
				return Value{}, err
			}
			if a.Kind != NumberKind || b.Kind != NumberKind {
				return Value{}, errors.NewExecutionError("comparison operand is not a number", nil)
			}
			var r bool
			switch instr.Op {
			case GT:
				r = a.Num > b.Num
			case LT:
				r = a.Num < b.Num
			case GTE:
				r = a.Num >= b.Num
			case LTE:
				r = a.Num <= b.Num
			}
			if err := push(BoolValue(r)); err != nil {
				return Value{}, err
			}

		case AND, OR:
			b, err := pop()
			if err != nil {
				return Value{}, err
			}
			a, err := pop()
			if err != nil {
				return Value{}, err
			}
			var r bool
			if instr.Op == AND {
				r = a.Truthy() && b.Truthy()
			} else {
				r = a.Truthy() || b.Truthy()
			}
			if err := push(BoolValue(r)); err != nil {
				return Value{}, err
			}
		case NOT:
			a, err := pop()
			if err != nil {
				return Value{}, err
			}
			if err := push(BoolValue(!a.Truthy())); err != nil {
				return Value{}, err
			}

		case JUMP:
			next = int(instr.U16)
		case JUMP_IF:
			v, err := pop()
			if err != nil {
				return Value{}, err
			}
			if v.Truthy() {
				next = int(instr.U16)
			}
		case JUMP_IF_NOT:
			v, err := pop()
			if err != nil {
				return Value{}, err
			}
			if !v.Truthy() {
				next = int(instr.U16)
			}

		case CALL:
			fname, err := poolString(p.FunctionNames, instr.U16)
			if err != nil {
				return Value{}, err
			}
			if invoker == nil {
				return Value{}, errors.NewExecutionError("bytecode CALL with no tool invoker configured", nil)
			}
			arg, err := pop()
			if err != nil {
				return Value{}, err
			}
			paramsJSON, err := arg.ToJSON()
			if err != nil {
				return Value{}, errors.NewExecutionError("bytecode CALL argument is not serializable", err)
			}
			result, err := invoker.InvokeTool(fname, paramsJSON)
			if err != nil {
				return Value{}, errors.NewExecutionError("bytecode CALL to "+fname+" failed", err)
			}
			if result.Status != mcpstatus.Success {
				return Value{}, errors.NewExecutionError("bytecode CALL to "+fname+" returned "+result.Status.String(), nil)
			}
			rv, err := FromJSON(result.ResultJSON)
			if err != nil {
				rv = NullValue
			}
			if err := push(rv); err != nil {
				return Value{}, err
			}

		case RETURN:
			if len(stack) == 0 {
				return NullValue, nil
			}
			return stack[len(stack)-1], nil
		case HALT:
			if len(stack) == 0 {
				return NullValue, nil
			}
			return stack[len(stack)-1], nil

		case GET_PROP:
			name, err := poolString(p.PropertyNames, instr.U16)
			if err != nil {
				return Value{}, err
			}
			obj, err := pop()
			if err != nil {
				return Value{}, err
			}
			if obj.Kind != ObjectKind {
				return Value{}, errors.NewExecutionError("GET_PROP on non-object", nil)
			}
			v, ok := obj.Obj[name]
			if !ok {
				v = NullValue
			}
			if err := push(v); err != nil {
				return Value{}, err
			}
		case SET_PROP:
			name, err := poolString(p.PropertyNames, instr.U16)
			if err != nil {
				return Value{}, err
			}
			val, err := pop()
			if err != nil {
				return Value{}, err
			}
			obj, err := pop()
			if err != nil {
				return Value{}, err
			}
			if obj.Kind != ObjectKind {
				return Value{}, errors.NewExecutionError("SET_PROP on non-object", nil)
			}
			next := make(map[string]Value, len(obj.Obj)+1)
			for k, v := range obj.Obj {
				next[k] = v
			}
			next[name] = val
			if err := push(ObjValue(next)); err != nil {
				return Value{}, err
			}

		case NEW_ARRAY:
			n := int(instr.U16)
			elems := make([]Value, n)
			for i := n - 1; i >= 0; i-- {
				v, err := pop()
				if err != nil {
					return Value{}, err
				}
				elems[i] = v
			}
			if err := push(ArrValue(elems)); err != nil {
				return Value{}, err
			}
		case NEW_OBJECT:
			n := int(instr.U16)
			obj := make(map[string]Value, n)
			for i := 0; i < n; i++ {
				val, err := pop()
				if err != nil {
					return Value{}, err
				}
				key, err := pop()
				if err != nil {
					return Value{}, err
				}
				if key.Kind != StringKind {
					return Value{}, errors.NewExecutionError("NEW_OBJECT key is not a string", nil)
				}
				obj[key.Str] = val
			}
			if err := push(ObjValue(obj)); err != nil {
				return Value{}, err
			}

		default:
			return Value{}, errors.NewExecutionError("unknown opcode", nil)
		}

		pc = next
	}
}

func poolString(pool []string, idx uint16) (string, error) {
	if int(idx) >= len(pool) {
		return "", errors.NewExecutionError("bytecode pool index out of range", nil)
	}
	return pool[idx], nil
}
