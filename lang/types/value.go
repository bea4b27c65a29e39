// Package types implements the runtime value model: the Value interface and
// its concrete variants (None, Bool, Int, Float, String, *Vec, *Map,
// *Function). Vec, Map and Function are heap-allocated handles: copying a
// Value of one of these kinds copies the handle, not the underlying
// container, so mutations through one alias are visible through all of
// them. The other variants are by-value.
package types

// Value is the interface implemented by every value the machine can
// manipulate.
type Value interface {
	// String returns the value's canonical textual form (see doc comment on
	// each type for the exact rendering rule).
	String() string

	// Type returns a short, stable name for the value's dynamic type, used in
	// error messages ("add: expected int, got string").
	Type() string
}

// NilType is the type of None. Its only legal value is None.
type NilType struct{}

// None is the singleton absence-of-a-value Value.
var None Value = NilType{}

func (NilType) String() string { return "none" }
func (NilType) Type() string   { return "none" }

// Ordered is implemented by value types that support Gt/Gte/Lt/Lte. Per
// spec, only same-typed Int/Int and Float/Float pairs are ordered: a type
// implementing Ordered must still be paired with a value of the identical
// concrete type by the caller (lang/machine), since Cmp will panic (an
// implementation bug, not a guest error) if handed a foreign type.
type Ordered interface {
	Value
	// Cmp returns negative, zero or positive as the receiver is less than,
	// equal to, or greater than y.
	Cmp(y Value) int
}

// Equals reports whether a and b are equal, implementing spec's Eq opcode
// rule: structural/by-value equality for Bool/Int/Float/String, None equals
// only None, and Vec/Map/Function compare by handle identity. ok is false
// if a and b are of incompatible types (neither is None and their concrete
// types differ), which lang/machine treats as a type fault.
func Equals(a, b Value) (result, ok bool) {
	if _, aNone := a.(NilType); aNone {
		_, bNone := b.(NilType)
		return bNone, true
	}
	if _, bNone := b.(NilType); bNone {
		return false, true
	}

	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv, ok
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv, ok
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv, ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv, ok
	case *Vec:
		bv, ok := b.(*Vec)
		return ok && av == bv, ok
	case *Map:
		bv, ok := b.(*Map)
		return ok && av == bv, ok
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv, ok
	default:
		return false, false
	}
}
