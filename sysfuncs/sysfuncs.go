// Package sysfuncs provides a reference implementation of the host
// system-function table a CallSys opcode resolves against. The VM itself
// has no notion of I/O or introspection; these are host collaborators
// grouped into a named table, the way a scripting runtime's standard
// library is usually organized.
package sysfuncs

import (
	"fmt"
	"io"

	"github.com/mScule/stall/lang/machine"
	"github.com/mScule/stall/lang/types"
)

// Std returns the standard system-function table, ready to be assigned to
// (or merged into) a machine.VM's Sys field. Every function here follows
// the same calling convention as a guest CallFunc callee: pop its
// arguments off the operand stack, push its result(s).
func Std() machine.SysTable {
	return machine.SysTable{
		"std/print":     print_,
		"std/read_line": readLine,
		"std/val_dump":  valDump,
		"std/len":       length,
		"std/vec_len":   vecLen,
		"std/map_has":   mapHas,
	}
}

// print_ writes to vm.Stdout rather than os.Stdout directly, so a host
// embedding the VM (or a test) can redirect guest output by setting the
// VM's Stdout field before Run.
func print_(vm *machine.VM) error {
	val, ok := vm.Pop()
	if !ok {
		return fmt.Errorf("std/print: operand stack underflow")
	}
	fmt.Fprint(vm.Stdout, val.String())
	return nil
}

// readLine reads a line of text from vm.Stdin (trailing newline stripped)
// and pushes it as a String, or pushes None on a read error or at EOF with
// nothing left to read. A final line without a trailing newline is still
// pushed as a String.
func readLine(vm *machine.VM) error {
	line, err := vm.ReadLine()
	if err != nil && (err != io.EOF || line == "") {
		vm.Push(types.None)
		return nil
	}
	line = trimNewline(line)
	vm.Push(types.String(line))
	return nil
}

func trimNewline(s string) string {
	n := len(s)
	if n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
	}
	n = len(s)
	if n > 0 && s[n-1] == '\r' {
		s = s[:n-1]
	}
	return s
}

// valDump pops a value and pushes a String with both its dynamic type and
// canonical form, a debugging aid with no guest-observable equivalent
// (there is no reflection opcode in §4.1).
func valDump(vm *machine.VM) error {
	val, ok := vm.Pop()
	if !ok {
		return fmt.Errorf("std/val_dump: operand stack underflow")
	}
	vm.Push(types.String(fmt.Sprintf("%s(%s)", val.Type(), val.String())))
	return nil
}

// length pops a Vec, Map or String and pushes its element/entry/byte count
// as an Int; any other type is a host-level failure, returned to the VM as a
// plain error (not a *machine.Fault), which ends Run.
func length(vm *machine.VM) error {
	val, ok := vm.Pop()
	if !ok {
		return fmt.Errorf("std/len: operand stack underflow")
	}
	switch v := val.(type) {
	case *types.Vec:
		vm.Push(types.Int(v.Len()))
	case *types.Map:
		vm.Push(types.Int(v.Len()))
	case types.String:
		vm.Push(types.Int(len(v)))
	default:
		return fmt.Errorf("std/len: expected vec, map or string, got %s", val.Type())
	}
	return nil
}

func vecLen(vm *machine.VM) error {
	val, ok := vm.Pop()
	if !ok {
		return fmt.Errorf("std/vec_len: operand stack underflow")
	}
	vec, ok := val.(*types.Vec)
	if !ok {
		return fmt.Errorf("std/vec_len: expected vec, got %s", val.Type())
	}
	vm.Push(types.Int(vec.Len()))
	return nil
}

// mapHas pops a Map handle then a String key (the handle-last convention
// every Vec/Map opcode in §4.1 uses) and pushes whether the key is present.
func mapHas(vm *machine.VM) error {
	mval, ok := vm.Pop()
	if !ok {
		return fmt.Errorf("std/map_has: operand stack underflow")
	}
	m, ok := mval.(*types.Map)
	if !ok {
		return fmt.Errorf("std/map_has: expected map, got %s", mval.Type())
	}
	kval, ok := vm.Pop()
	if !ok {
		return fmt.Errorf("std/map_has: operand stack underflow")
	}
	key, ok := kval.(types.String)
	if !ok {
		return fmt.Errorf("std/map_has: expected string key, got %s", kval.Type())
	}
	_, has := m.Get(string(key))
	vm.Push(types.Bool(has))
	return nil
}
