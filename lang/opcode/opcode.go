// Package opcode defines the instruction set executed by lang/machine: the
// Opcode enumeration, the stack-oriented semantics of each instruction (as
// a comment "stack picture"), and the Op value produced by lang/parser that
// folds a mnemonic and its immediate operands into one instruction.
package opcode

import "fmt"

// Opcode identifies one VM instruction. Most opcodes are nullary; a few
// carry an immediate operand decoded from the Op that wraps them (see Op).
type Opcode uint8

// "x OP x x" is a stack picture describing the operand stack before and
// after execution of the instruction, oldest-pushed-first, left to right.
const ( //nolint:revive
	// Values & literals
	GetConst Opcode = iota //        - GetConst(name)  fn
	GetLit                 //        - GetLit(v)       v

	// Scopes
	NewScope //   - NewScope  -
	EndScope //   - EndScope  -

	// Variables
	NewVar //         v NewVar           -
	SetVar //         v SetVar(o,i)      -
	GetVar //           - GetVar(o,i)    v

	// Calling
	CallSys    //             - CallSys(name)  -   (host reads/writes the stack directly)
	CallFunc   //            fn CallFunc       -   (pushes a frame; stack is shared with the callee)
	ReturnCall //             - ReturnCall      -  (pops the current frame)

	// Jumping (targets are absolute opcode indices in the current body)
	GoTo         //     - GoTo(i)           -
	IfTrueGoTo   //  cond IfTrueGoTo(i)     -
	IfFalseGoTo  //  cond IfFalseGoTo(i)    -

	// Comparison
	// (a is the top operand, popped first; b is the one below it)
	Gt  // b a Gt  bool  (a > b)
	Gte // b a Gte bool  (a >= b)
	Lt  // b a Lt  bool  (a < b)
	Lte // b a Lte bool  (a <= b)
	Eq  // b a Eq  bool
	Not // b   Not bool

	// Arithmetic
	Add // b a Add a+b
	Sub // b a Sub a-b
	Mul // b a Mul a*b
	Div // b a Div a/b

	// Strings
	Concat // b a Concat a++b

	// Casting
	ToInt    // v ToInt    int
	ToFloat  // v ToFloat  float
	ToString // v ToString string

	// Vecs
	NewVec     //        - NewVec       vec
	PushToVec  //   v vec PushToVec     -
	GetVecVal  //   i vec GetVecVal     v
	SetVecVal  // v i vec SetVecVal     -

	// Maps
	NewMap    //        - NewMap     map
	GetMapVal //   k map GetMapVal   v
	SetMapVal // v k map SetMapVal   -

	maxOpcode
)

var opcodeNames = [...]string{
	GetConst:    "get_const",
	GetLit:      "get_lit",
	NewScope:    "new_scope",
	EndScope:    "end_scope",
	NewVar:      "new_var",
	SetVar:      "set_var",
	GetVar:      "get_var",
	CallSys:     "call_sys",
	CallFunc:    "call_func",
	ReturnCall:  "return",
	GoTo:        "goto",
	IfTrueGoTo:  "if_true_goto",
	IfFalseGoTo: "if_false_goto",
	Gt:          "gt",
	Gte:         "gte",
	Lt:          "lt",
	Lte:         "lte",
	Eq:          "eq",
	Not:         "not",
	Add:         "add",
	Sub:         "sub",
	Mul:         "mul",
	Div:         "div",
	Concat:      "concat",
	ToInt:       "to_i64",
	ToFloat:     "to_f64",
	ToString:    "to_string",
	NewVec:      "new_vec",
	PushToVec:   "push_to_vec",
	GetVecVal:   "get_vec_val",
	SetVecVal:   "set_vec_val",
	NewMap:      "new_map",
	GetMapVal:   "get_map_val",
	SetMapVal:   "set_map_val",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}

// LiteralKind identifies the variant carried by a Literal.
type LiteralKind uint8

const (
	LitNone LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

// Literal is an immediate constant folded into a GetLit instruction by the
// parser. It intentionally does not reference lang/types.Value: the opcode
// package is a leaf dependency of both lang/types and lang/machine, so the
// conversion from Literal to a runtime Value happens in lang/machine at
// dispatch time instead.
type Literal struct {
	Kind  LiteralKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Op is one instruction: an Opcode plus whichever immediate operand it
// requires. Only the field(s) relevant to Code are meaningful.
type Op struct {
	Code Opcode

	Name    string  // GetConst, CallSys
	Lit     Literal // GetLit
	Offset  int     // SetVar, GetVar
	Index   int     // SetVar, GetVar
	Target  int     // GoTo, IfTrueGoTo, IfFalseGoTo
	SrcLine int     // 1-based source line, for error messages; 0 if unknown
}

func (o Op) String() string {
	switch o.Code {
	case GetConst, CallSys:
		return fmt.Sprintf("%s %q", o.Code, o.Name)
	case GetLit:
		return fmt.Sprintf("%s %v", o.Code, o.Lit)
	case SetVar, GetVar:
		return fmt.Sprintf("%s(%d,%d)", o.Code, o.Offset, o.Index)
	case GoTo, IfTrueGoTo, IfFalseGoTo:
		return fmt.Sprintf("%s(%d)", o.Code, o.Target)
	default:
		return o.Code.String()
	}
}

func (l Literal) String() string {
	switch l.Kind {
	case LitNone:
		return "none"
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitFloat:
		return fmt.Sprintf("%g", l.Float)
	case LitString:
		return fmt.Sprintf("%q", l.Str)
	default:
		return "?"
	}
}
