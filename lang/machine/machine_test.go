package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mScule/stall/lang/machine"
	"github.com/mScule/stall/lang/opcode"
	"github.com/mScule/stall/lang/types"
	"github.com/mScule/stall/registry"
)

func intLit(n int64) opcode.Op {
	return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitInt, Int: n}}
}

func floatLit(f float64) opcode.Op {
	return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitFloat, Float: f}}
}

func strLit(s string) opcode.Op {
	return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitString, Str: s}}
}

func boolLit(b bool) opcode.Op {
	return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitBool, Bool: b}}
}

func op(code opcode.Opcode) opcode.Op { return opcode.Op{Code: code} }

func runMain(t *testing.T, body []opcode.Op) (*machine.VM, error) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register("main", &types.Function{Name: "main", Body: body}))
	vm := machine.New(reg)
	return vm, vm.Run("main")
}

// S1 — arithmetic.
func TestArithmetic(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		intLit(3), intLit(4), op(opcode.Add), op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.Int(7), v)
}

// S2 — branching.
func TestBranching(t *testing.T) {
	body := []opcode.Op{
		intLit(10),                                        // 0
		intLit(5),                                         // 1
		op(opcode.Lt),                                      // 2
		{Code: opcode.IfFalseGoTo, Target: 6},              // 3
		strLit("small"),                                    // 4
		{Code: opcode.GoTo, Target: 7},                     // 5
		strLit("big"),                                      // 6
		op(opcode.ReturnCall),                              // 7
	}
	vm, err := runMain(t, body)
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.String("small"), v)
}

// S3 — loop, count 1..3 summing to 6. Loop-exit and increment operand order
// is arranged so the comparison reads as i>3 under the a-pops-first,
// result-is-"a OP b" convention (see lang/machine doc comments on compare).
func TestLoopSum(t *testing.T) {
	body := []opcode.Op{
		op(opcode.NewScope),                   // 0
		intLit(1),                             // 1  i = 1
		op(opcode.NewVar),                     // 2
		intLit(0),                             // 3  sum = 0
		op(opcode.NewVar),                     // 4
		// loop top: index 5
		intLit(3),                                          // 5
		{Code: opcode.GetVar, Offset: 0, Index: 0},         // 6  push i
		op(opcode.Gt),                                       // 7  i > 3
		{Code: opcode.IfTrueGoTo, Target: 18},              // 8
		{Code: opcode.GetVar, Offset: 0, Index: 0},         // 9  push i
		{Code: opcode.GetVar, Offset: 0, Index: 1},         // 10 push sum
		op(opcode.Add),                                      // 11 sum + i
		{Code: opcode.SetVar, Offset: 0, Index: 1},         // 12
		intLit(1),                                          // 13
		{Code: opcode.GetVar, Offset: 0, Index: 0},         // 14 push i
		op(opcode.Add),                                      // 15 i + 1
		{Code: opcode.SetVar, Offset: 0, Index: 0},         // 16
		{Code: opcode.GoTo, Target: 5},                     // 17
		// exit: index 18
		{Code: opcode.GetVar, Offset: 0, Index: 1},         // 18 push sum
		op(opcode.EndScope),                                 // 19
		op(opcode.ReturnCall),                               // 20
	}
	vm, err := runMain(t, body)
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.Int(6), v)
}

// S4 — first-class call.
func TestFirstClassCall(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("double", &types.Function{
		Name: "double",
		Body: []opcode.Op{intLit(2), op(opcode.Mul), op(opcode.ReturnCall)},
	}))
	require.NoError(t, reg.Register("main", &types.Function{
		Name: "main",
		Body: []opcode.Op{
			intLit(21),
			{Code: opcode.GetConst, Name: "double"},
			op(opcode.CallFunc),
			op(opcode.ReturnCall),
		},
	}))
	vm := machine.New(reg)
	require.NoError(t, vm.Run("main"))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.Int(42), v)
}

// S5 — aliased vec. The handle is always the last-pushed, first-popped
// operand (see the stack pictures on PushToVec/GetVecVal et al. in
// lang/opcode), so
// the value goes on the stack before the vec handle.
func TestAliasedVec(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		op(opcode.NewVec),
		op(opcode.NewVar),
		intLit(99),
		{Code: opcode.GetVar, Offset: 0, Index: 0},
		op(opcode.PushToVec),
		{Code: opcode.GetVar, Offset: 0, Index: 0},
		op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	vec, ok := v.(*types.Vec)
	require.True(t, ok)
	require.Equal(t, 1, vec.Len())
	elem, ok := vec.Get(0)
	require.True(t, ok)
	require.Equal(t, types.Int(99), elem)
}

// S6 — map round-trip.
func TestMapRoundTrip(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		op(opcode.NewMap),
		op(opcode.NewVar),
		strLit("hi"),
		strLit("k"),
		{Code: opcode.GetVar, Offset: 0, Index: 0},
		op(opcode.SetMapVal),
		strLit("k"),
		{Code: opcode.GetVar, Offset: 0, Index: 0},
		op(opcode.GetMapVal),
		op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.String("hi"), v)
}

func TestFloatArithAndConversions(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		floatLit(2.5), floatLit(1.5), op(opcode.Add), op(opcode.ToString), op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.String("4"), v)
}

func TestToIntFloorsNegativeFloat(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		floatLit(-2.5), op(opcode.ToInt), op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.Int(-3), v)
}

func TestEqAndNot(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		intLit(5), intLit(5), op(opcode.Eq), op(opcode.Not), op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.Bool(false), v)
}

func TestConcat(t *testing.T) {
	vm, err := runMain(t, []opcode.Op{
		strLit("lo"), strLit("hel"), op(opcode.Concat), op(opcode.ReturnCall),
	})
	require.NoError(t, err)
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.String("hello"), v)
}

// Failure scenarios.

func TestFaultType(t *testing.T) {
	_, err := runMain(t, []opcode.Op{boolLit(true), op(opcode.Add)})
	require.Error(t, err)
	var f *machine.Fault
	require.ErrorAs(t, err, &f)
	require.Equal(t, machine.FaultType, f.Kind)
}

// The divisor 0 is pushed first so that, under the a-pops-first, result-is-
// "a OP b" convention, Div computes 1 / 0.
func TestFaultArithmeticDivideByZero(t *testing.T) {
	_, err := runMain(t, []opcode.Op{intLit(0), intLit(1), op(opcode.Div)})
	require.Error(t, err)
	var f *machine.Fault
	require.ErrorAs(t, err, &f)
	require.Equal(t, machine.FaultArithmetic, f.Kind)
}

func TestFaultLookupMissingConst(t *testing.T) {
	_, err := runMain(t, []opcode.Op{{Code: opcode.GetConst, Name: "missing"}})
	require.Error(t, err)
	var f *machine.Fault
	require.ErrorAs(t, err, &f)
	require.Equal(t, machine.FaultLookup, f.Kind)
}

func TestFaultLookupMissingSysFunc(t *testing.T) {
	_, err := runMain(t, []opcode.Op{{Code: opcode.CallSys, Name: "sys/nope"}})
	require.Error(t, err)
	var f *machine.Fault
	require.ErrorAs(t, err, &f)
	require.Equal(t, machine.FaultLookup, f.Kind)
}

func TestFaultBoundsVecIndex(t *testing.T) {
	_, err := runMain(t, []opcode.Op{
		intLit(0), op(opcode.NewVec), op(opcode.GetVecVal),
	})
	require.Error(t, err)
	var f *machine.Fault
	require.ErrorAs(t, err, &f)
	require.Equal(t, machine.FaultBounds, f.Kind)
}

func TestMaxStepsFault(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("main", &types.Function{
		Name: "main",
		Body: []opcode.Op{{Code: opcode.GoTo, Target: 0}},
	}))
	vm := machine.New(reg)
	vm.MaxSteps = 10
	err := vm.Run("main")
	require.Error(t, err)
	var f *machine.Fault
	require.ErrorAs(t, err, &f)
	require.Equal(t, machine.FaultBounds, f.Kind)
}

func TestCallSysRoundTrip(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("main", &types.Function{
		Name: "main",
		Body: []opcode.Op{
			intLit(3), intLit(4),
			{Code: opcode.CallSys, Name: "test/add"},
			op(opcode.ReturnCall),
		},
	}))
	vm := machine.New(reg)
	vm.Sys["test/add"] = func(vm *machine.VM) error {
		a, _ := vm.Pop()
		b, _ := vm.Pop()
		vm.Push(a.(types.Int) + b.(types.Int))
		return nil
	}
	require.NoError(t, vm.Run("main"))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, types.Int(7), v)
}
