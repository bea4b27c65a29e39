package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mScule/stall/lang/scanner"
)

// Tokenize implements the "tokenize" subcommand: print every token of each
// named file, one per line.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
		toks, err := scanner.ScanAll(string(src))
		for _, tok := range toks {
			line, col := tok.Pos.LineCol()
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s\n", path, line, col, tok)
		}
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
	}
	return nil
}
