package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mScule/stall/lang/machine"
	"github.com/mScule/stall/registry"
	"github.com/mScule/stall/runtimeconfig"
	"github.com/mScule/stall/sysfuncs"
)

// Run implements the "run" subcommand: load every *.funcs file under dir,
// resolve entry and execute it to completion, printing whatever values the
// entry function leaves on the operand stack.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	dir, entry := args[0], args[1]

	reg, err := registry.LoadFiles(dir)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	cfg, err := runtimeconfig.Load()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	vm := machine.New(reg)
	vm.Sys = sysfuncs.Std()
	vm.MaxSteps = cfg.MaxSteps
	vm.MaxCallStackDepth = cfg.MaxCallStackDepth
	// Route guest std/print and std/read_line through this command's own
	// Stdio rather than the VM's os.Stdout/Stderr/Stdin defaults, so a
	// caller redirecting this subcommand's streams also redirects the
	// guest program's I/O.
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	vm.Stdin = stdio.Stdin

	if err := vm.Run(entry); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	var results []string
	for {
		v, ok := vm.Pop()
		if !ok {
			break
		}
		results = append([]string{v.String()}, results...)
	}
	fmt.Fprintf(stdio.Stdout, "%v\n", results)
	return nil
}
