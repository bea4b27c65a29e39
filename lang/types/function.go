package types

import (
	"fmt"

	"github.com/mScule/stall/lang/opcode"
)

// Function is an immutable, named sequence of opcodes. Once constructed by
// the parser it is never mutated; copying a *Function value copies the
// handle, and all aliases observe the same body.
type Function struct {
	Name string
	Body []opcode.Op
}

var _ Value = (*Function)(nil)

func (f *Function) String() string { return fmt.Sprintf("function@%p %s", f, f.Name) }
func (f *Function) Type() string   { return "function" }
