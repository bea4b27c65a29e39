package types

import "fmt"

// Vec is an ordered, mutable sequence of Value. It is always manipulated
// through a *Vec handle: copying the handle copies the reference, not the
// backing slice, so PushToVec/SetVecVal mutations are visible through every
// alias of the same Vec, per spec's aliasing rules.
type Vec struct {
	elems []Value
}

var _ Value = (*Vec)(nil)

// NewVec returns a new, empty Vec handle.
func NewVec() *Vec { return &Vec{} }

func (v *Vec) String() string { return fmt.Sprintf("vec@%p", v) }
func (v *Vec) Type() string   { return "vec" }

// Len returns the number of elements currently in the vec.
func (v *Vec) Len() int { return len(v.elems) }

// Push appends val to the end of the vec.
func (v *Vec) Push(val Value) { v.elems = append(v.elems, val) }

// Get returns the element at index i and true, or (nil, false) if i is out
// of range.
func (v *Vec) Get(i int) (Value, bool) {
	if i < 0 || i >= len(v.elems) {
		return nil, false
	}
	return v.elems[i], true
}

// Set assigns val to index i, reporting false if i is out of range.
func (v *Vec) Set(i int, val Value) bool {
	if i < 0 || i >= len(v.elems) {
		return false
	}
	v.elems[i] = val
	return true
}
