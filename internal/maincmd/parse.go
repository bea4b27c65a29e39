package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mScule/stall/lang/parser"
)

// Parse implements the "parse" subcommand: parse each named file and print
// its registered function names with their opcode listing, one function
// per block.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
		fns, err := parser.New(string(src), "").ParseAll()
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
		for _, nf := range fns {
			fmt.Fprintf(stdio.Stdout, "%s:\n", nf.Name)
			for i, op := range nf.Fn.Body {
				fmt.Fprintf(stdio.Stdout, "  %4d  %s\n", i, op)
			}
		}
	}
	return nil
}
