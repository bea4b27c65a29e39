// Package machine implements the bytecode interpreter: the three runtime
// stacks (call, scope, operand), the fetch-dispatch-execute loop and the
// Fault error type it can raise. It has no notion of source syntax; it only
// ever sees already-parsed *types.Function values supplied by a Registry.
package machine

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/mScule/stall/lang/opcode"
	"github.com/mScule/stall/lang/types"
	"github.com/mScule/stall/registry"
)

// Status reports whether the VM is still executing.
type Status uint8

const (
	Run Status = iota
	End
)

// SysFunc is a host function reachable via CallSys. It receives the VM so it
// can pop its arguments off the operand stack and push its result(s), the
// same convention a guest function uses. An error return is fatal and is
// surfaced to Run as-is; it need not be a *Fault (the sysfuncs package
// returns plain errors).
type SysFunc func(vm *VM) error

// SysTable maps a CallSys name to its host implementation.
type SysTable map[string]SysFunc

// frame is one activation record on the call stack: the function being
// executed and its program counter, per spec's "0<=pc<=len(body)" invariant.
type frame struct {
	fn *types.Function
	pc int
}

// VM is a single-threaded interpreter instance. It is not safe for
// concurrent use; running independent programs concurrently means
// constructing independent VMs (see spec's "no shared mutable state between
// VM instances" non-goal note).
type VM struct {
	Registry *registry.Registry
	Sys      SysTable

	// Stdout, Stderr and Stdin are the streams sysfuncs read and write
	// through. New defaults them to os.Stdout, os.Stderr and os.Stdin; a
	// host embedding the VM may overwrite them before Run.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// MaxCallStackDepth, if non-zero, bounds the call stack; a CallFunc that
	// would exceed it is a bounds fault instead of unbounded growth of the
	// call stack. Zero means unbounded.
	MaxCallStackDepth int
	// MaxSteps, if non-zero, bounds the number of dispatched opcodes across
	// the whole Run call; exceeding it is a bounds fault. Zero means
	// unbounded. This is the interpreter's only defense against a guest
	// program that loops forever, since the language has no signal/interrupt
	// mechanism of its own.
	MaxSteps int

	calls    []frame
	scopes   [][]types.Value
	operands []types.Value

	status      Status
	steps       int
	stdinReader *bufio.Reader
}

// New returns a VM ready to Run programs looked up in reg, with Stdout/
// Stderr/Stdin defaulted to the process's standard streams.
func New(reg *registry.Registry) *VM {
	return &VM{
		Registry: reg,
		Sys:      make(SysTable),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Stdin:    os.Stdin,
	}
}

// Run looks up entry in the registry and executes it to completion (its
// outermost ReturnCall), returning the first error encountered, if any (a
// *Fault, or the error a SysFunc returned). The
// operand stack is left exactly as the entry function leaves it; callers
// that want a "return value" convention should have entry push one value
// before its final ReturnCall and read it back with Pop.
func (vm *VM) Run(entry string) error {
	fn, ok := vm.Registry.Lookup(entry)
	if !ok {
		return newFault(FaultLookup, "", "no such function %q", entry)
	}

	vm.calls = append(vm.calls, frame{fn: fn, pc: 0})
	vm.scopes = append(vm.scopes, nil)
	vm.status = Run

	for vm.status == Run {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes and returns the top of the operand stack. It is exported so a
// host caller can read back a result Run's entry function left behind.
func (vm *VM) Pop() (types.Value, bool) {
	return vm.popOperand()
}

// Push places val on top of the operand stack. It is exported so a SysFunc
// can push its result the same way a guest CallFunc callee would.
func (vm *VM) Push(val types.Value) {
	vm.operands = append(vm.operands, val)
}

// ReadLine reads a line (including its trailing newline, if any) from
// vm.Stdin. It owns a single buffered reader for the lifetime of the VM, so
// sysfuncs reading one line at a time never lose bytes the buffer read
// ahead of the previous line.
func (vm *VM) ReadLine() (string, error) {
	if vm.stdinReader == nil {
		vm.stdinReader = bufio.NewReader(vm.Stdin)
	}
	return vm.stdinReader.ReadString('\n')
}

func (vm *VM) popOperand() (types.Value, bool) {
	n := len(vm.operands)
	if n == 0 {
		return nil, false
	}
	v := vm.operands[n-1]
	vm.operands = vm.operands[:n-1]
	return v, true
}

func (vm *VM) top() *frame {
	return &vm.calls[len(vm.calls)-1]
}

// step fetches the current frame's next opcode, advances its pc, and
// dispatches the opcode. Jump opcodes overwrite pc again afterward, per
// spec §4.2.
func (vm *VM) step() error {
	if vm.MaxSteps > 0 && vm.steps >= vm.MaxSteps {
		return newFault(FaultBounds, "", "exceeded maximum step count (%d)", vm.MaxSteps)
	}
	vm.steps++

	fr := vm.top()
	if fr.pc < 0 || fr.pc >= len(fr.fn.Body) {
		return newFault(FaultBounds, "", "function %q fell off the end of its body without a return", fr.fn.Name)
	}
	op := fr.fn.Body[fr.pc]
	fr.pc++

	if err := vm.dispatch(op); err != nil {
		if f, ok := err.(*Fault); ok && f.Line == 0 {
			f.Line = op.SrcLine
		}
		return err
	}
	return nil
}

func (vm *VM) dispatch(op opcode.Op) error {
	name := op.Code.String()

	switch op.Code {
	case opcode.GetConst:
		fn, ok := vm.Registry.Lookup(op.Name)
		if !ok {
			return newFault(FaultLookup, name, "no such function %q", op.Name)
		}
		vm.Push(fn)

	case opcode.GetLit:
		vm.Push(literalValue(op.Lit))

	case opcode.NewScope:
		vm.scopes = append(vm.scopes, nil)

	case opcode.EndScope:
		if len(vm.scopes) == 0 {
			return newFault(FaultBounds, name, "scope stack underflow")
		}
		vm.scopes = vm.scopes[:len(vm.scopes)-1]

	case opcode.NewVar:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		if len(vm.scopes) == 0 {
			return newFault(FaultBounds, name, "no active scope")
		}
		top := len(vm.scopes) - 1
		vm.scopes[top] = append(vm.scopes[top], val)

	case opcode.SetVar:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		scope, err := vm.scopeAt(op.Offset)
		if err != nil {
			return err
		}
		if op.Index < 0 || op.Index >= len(*scope) {
			return newFault(FaultBounds, name, "variable index %d out of range", op.Index)
		}
		(*scope)[op.Index] = val

	case opcode.GetVar:
		scope, err := vm.scopeAt(op.Offset)
		if err != nil {
			return err
		}
		if op.Index < 0 || op.Index >= len(*scope) {
			return newFault(FaultBounds, name, "variable index %d out of range", op.Index)
		}
		vm.Push((*scope)[op.Index])

	case opcode.CallSys:
		fn, ok := vm.Sys[op.Name]
		if !ok {
			return newFault(FaultLookup, name, "no such system function %q", op.Name)
		}
		if err := fn(vm); err != nil {
			return err
		}

	case opcode.CallFunc:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		fn, ok := val.(*types.Function)
		if !ok {
			return newFault(FaultType, name, "expected function, got %s", val.Type())
		}
		if vm.MaxCallStackDepth > 0 && len(vm.calls) >= vm.MaxCallStackDepth {
			return newFault(FaultBounds, name, "call stack depth exceeded %d", vm.MaxCallStackDepth)
		}
		vm.calls = append(vm.calls, frame{fn: fn})

	case opcode.ReturnCall:
		if len(vm.calls) == 0 {
			return newFault(FaultBounds, name, "call stack underflow")
		}
		vm.calls = vm.calls[:len(vm.calls)-1]
		if len(vm.calls) == 0 {
			vm.status = End
		}

	case opcode.GoTo:
		vm.jump(op.Target)

	case opcode.IfTrueGoTo:
		cond, err := vm.popBool(name)
		if err != nil {
			return err
		}
		if cond {
			vm.jump(op.Target)
		}

	case opcode.IfFalseGoTo:
		cond, err := vm.popBool(name)
		if err != nil {
			return err
		}
		if !cond {
			vm.jump(op.Target)
		}

	case opcode.Gt, opcode.Gte, opcode.Lt, opcode.Lte:
		return vm.compare(op.Code, name)

	case opcode.Eq:
		a, b, err := vm.pop2(name)
		if err != nil {
			return err
		}
		result, ok := types.Equals(a, b)
		if !ok {
			return newFault(FaultType, name, "cannot compare %s with %s", a.Type(), b.Type())
		}
		vm.Push(types.Bool(result))

	case opcode.Not:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		b, ok := val.(types.Bool)
		if !ok {
			return newFault(FaultType, name, "expected bool, got %s", val.Type())
		}
		vm.Push(!b)

	case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div:
		return vm.arith(op.Code, name)

	case opcode.Concat:
		a, b, err := vm.pop2(name)
		if err != nil {
			return err
		}
		as, ok := a.(types.String)
		if !ok {
			return newFault(FaultType, name, "expected string, got %s", a.Type())
		}
		bs, ok := b.(types.String)
		if !ok {
			return newFault(FaultType, name, "expected string, got %s", b.Type())
		}
		vm.Push(as + bs)

	case opcode.ToInt:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		switch v := val.(type) {
		case types.Float:
			// Float -> Int floors then casts; a plain int64(v) conversion
			// truncates toward zero, which is wrong for negatives, e.g.
			// -2.5 must become -3, not -2.
			vm.Push(types.Int(math.Floor(float64(v))))
		case types.String:
			n, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return newFault(FaultArithmetic, name, "cannot parse %q as int", string(v))
			}
			vm.Push(types.Int(n))
		default:
			return newFault(FaultType, name, "cannot convert %s to int", val.Type())
		}

	case opcode.ToFloat:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		switch v := val.(type) {
		case types.Int:
			vm.Push(types.Float(v))
		case types.String:
			f, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				return newFault(FaultArithmetic, name, "cannot parse %q as float", string(v))
			}
			vm.Push(types.Float(f))
		default:
			return newFault(FaultType, name, "cannot convert %s to float", val.Type())
		}

	case opcode.ToString:
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		vm.Push(types.String(val.String()))

	case opcode.NewVec:
		vm.Push(types.NewVec())

	case opcode.PushToVec:
		vec, err := vm.popVec(name)
		if err != nil {
			return err
		}
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		vec.Push(val)

	case opcode.GetVecVal:
		vec, err := vm.popVec(name)
		if err != nil {
			return err
		}
		idx, err := vm.popIndex(name)
		if err != nil {
			return err
		}
		val, ok := vec.Get(idx)
		if !ok {
			return newFault(FaultBounds, name, "vec index %d out of range", idx)
		}
		vm.Push(val)

	case opcode.SetVecVal:
		vec, err := vm.popVec(name)
		if err != nil {
			return err
		}
		idx, err := vm.popIndex(name)
		if err != nil {
			return err
		}
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		if !vec.Set(idx, val) {
			return newFault(FaultBounds, name, "vec index %d out of range", idx)
		}

	case opcode.NewMap:
		vm.Push(types.NewMap(0))

	case opcode.GetMapVal:
		m, err := vm.popMap(name)
		if err != nil {
			return err
		}
		key, err := vm.popKey(name)
		if err != nil {
			return err
		}
		val, ok := m.Get(key)
		if !ok {
			return newFault(FaultBounds, name, "no such map key %q", key)
		}
		vm.Push(val)

	case opcode.SetMapVal:
		m, err := vm.popMap(name)
		if err != nil {
			return err
		}
		key, err := vm.popKey(name)
		if err != nil {
			return err
		}
		val, ok := vm.popOperand()
		if !ok {
			return newFault(FaultBounds, name, "operand stack underflow")
		}
		m.Set(key, val)

	default:
		return newFault(FaultType, name, "unimplemented opcode")
	}

	return nil
}

// jump sets the current frame's pc to target, overwriting the increment
// step already did, per spec §4.2's jump convention.
func (vm *VM) jump(target int) {
	vm.top().pc = target
}

// scopeAt returns a pointer to the scope offset frames up from the top of
// the scope stack (offset 0 is the innermost scope), per spec's
// (offset,index) addressing.
func (vm *VM) scopeAt(offset int) (*[]types.Value, error) {
	if offset < 0 || offset >= len(vm.scopes) {
		return nil, newFault(FaultBounds, "", "scope offset %d out of range", offset)
	}
	return &vm.scopes[len(vm.scopes)-1-offset], nil
}

func (vm *VM) popBool(op string) (bool, error) {
	val, ok := vm.popOperand()
	if !ok {
		return false, newFault(FaultBounds, op, "operand stack underflow")
	}
	b, ok := val.(types.Bool)
	if !ok {
		return false, newFault(FaultType, op, "expected bool, got %s", val.Type())
	}
	return bool(b), nil
}

// pop2 pops two operands, naming the first-popped a and the second-popped
// b, matching spec's "a OP b" convention for every binary opcode.
func (vm *VM) pop2(op string) (a, b types.Value, err error) {
	a, ok := vm.popOperand()
	if !ok {
		return nil, nil, newFault(FaultBounds, op, "operand stack underflow")
	}
	b, ok = vm.popOperand()
	if !ok {
		return nil, nil, newFault(FaultBounds, op, "operand stack underflow")
	}
	return a, b, nil
}

func (vm *VM) popVec(op string) (*types.Vec, error) {
	val, ok := vm.popOperand()
	if !ok {
		return nil, newFault(FaultBounds, op, "operand stack underflow")
	}
	vec, ok := val.(*types.Vec)
	if !ok {
		return nil, newFault(FaultType, op, "expected vec, got %s", val.Type())
	}
	return vec, nil
}

func (vm *VM) popMap(op string) (*types.Map, error) {
	val, ok := vm.popOperand()
	if !ok {
		return nil, newFault(FaultBounds, op, "operand stack underflow")
	}
	m, ok := val.(*types.Map)
	if !ok {
		return nil, newFault(FaultType, op, "expected map, got %s", val.Type())
	}
	return m, nil
}

func (vm *VM) popIndex(op string) (int, error) {
	val, ok := vm.popOperand()
	if !ok {
		return 0, newFault(FaultBounds, op, "operand stack underflow")
	}
	i, ok := val.(types.Int)
	if !ok {
		return 0, newFault(FaultType, op, "expected int index, got %s", val.Type())
	}
	return int(i), nil
}

func (vm *VM) popKey(op string) (string, error) {
	val, ok := vm.popOperand()
	if !ok {
		return "", newFault(FaultBounds, op, "operand stack underflow")
	}
	s, ok := val.(types.String)
	if !ok {
		return "", newFault(FaultType, op, "expected string key, got %s", val.Type())
	}
	return string(s), nil
}

// compare implements Gt/Gte/Lt/Lte. Per spec's pop-order convention, a is
// the first-popped operand and b the second; the result is a OP b, so
// e.g. Lt pushes true when a < b even though a sits nearer the top of the
// stack than b did before either pop.
func (vm *VM) compare(code opcode.Opcode, op string) error {
	a, b, err := vm.pop2(op)
	if err != nil {
		return err
	}
	ao, ok := a.(types.Ordered)
	if !ok {
		return newFault(FaultType, op, "type %s does not support ordering", a.Type())
	}
	bo, ok := b.(types.Ordered)
	if !ok || ao.Type() != bo.Type() {
		return newFault(FaultType, op, "cannot order %s with %s", a.Type(), b.Type())
	}
	c := ao.Cmp(bo)
	var result bool
	switch code {
	case opcode.Gt:
		result = c > 0
	case opcode.Gte:
		result = c >= 0
	case opcode.Lt:
		result = c < 0
	case opcode.Lte:
		result = c <= 0
	}
	vm.Push(types.Bool(result))
	return nil
}

// arith implements Add/Sub/Mul/Div over two same-typed Int or Float
// operands, computing a OP b per spec's pop-order convention.
func (vm *VM) arith(code opcode.Opcode, op string) error {
	a, ok := vm.popOperand()
	if !ok {
		return newFault(FaultBounds, op, "operand stack underflow")
	}
	switch a.(type) {
	case types.Int, types.Float:
	default:
		return newFault(FaultType, op, "expected int or float, got %s", a.Type())
	}
	b, ok := vm.popOperand()
	if !ok {
		return newFault(FaultBounds, op, "operand stack underflow")
	}

	switch av := a.(type) {
	case types.Int:
		bv, ok := b.(types.Int)
		if !ok {
			return newFault(FaultType, op, "cannot combine int with %s", b.Type())
		}
		if code == opcode.Div && bv == 0 {
			return newFault(FaultArithmetic, op, "integer division by zero")
		}
		vm.Push(intArith(code, av, bv))
	case types.Float:
		bv, ok := b.(types.Float)
		if !ok {
			return newFault(FaultType, op, "cannot combine float with %s", b.Type())
		}
		vm.Push(floatArith(code, av, bv))
	default:
		return newFault(FaultType, op, "expected int or float, got %s", a.Type())
	}
	return nil
}

func intArith(code opcode.Opcode, a, b types.Int) types.Int {
	switch code {
	case opcode.Add:
		return a + b
	case opcode.Sub:
		return a - b
	case opcode.Mul:
		return a * b
	case opcode.Div:
		return a / b
	default:
		panic("unreachable")
	}
}

func floatArith(code opcode.Opcode, a, b types.Float) types.Float {
	switch code {
	case opcode.Add:
		return a + b
	case opcode.Sub:
		return a - b
	case opcode.Mul:
		return a * b
	case opcode.Div:
		return a / b
	default:
		panic("unreachable")
	}
}

// literalValue converts an untyped opcode.Literal (assembled by the parser,
// which cannot import lang/types without creating an import cycle) into its
// typed runtime Value. Deferring the conversion to dispatch time, rather
// than parse time, is what breaks the cycle.
func literalValue(lit opcode.Literal) types.Value {
	switch lit.Kind {
	case opcode.LitBool:
		return types.Bool(lit.Bool)
	case opcode.LitInt:
		return types.Int(lit.Int)
	case opcode.LitFloat:
		return types.Float(lit.Float)
	case opcode.LitString:
		return types.String(lit.Str)
	default:
		return types.None
	}
}
