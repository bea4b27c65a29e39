package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mScule/stall/lang/types"
)

func TestEqualsByValue(t *testing.T) {
	ok, valid := types.Equals(types.Int(3), types.Int(3))
	require.True(t, valid)
	require.True(t, ok)

	ok, valid = types.Equals(types.Int(3), types.Int(4))
	require.True(t, valid)
	require.False(t, ok)

	ok, valid = types.Equals(types.String("a"), types.String("a"))
	require.True(t, valid)
	require.True(t, ok)
}

func TestEqualsNone(t *testing.T) {
	ok, valid := types.Equals(types.None, types.None)
	require.True(t, valid)
	require.True(t, ok)

	ok, valid = types.Equals(types.None, types.Int(0))
	require.True(t, valid)
	require.False(t, ok)

	ok, valid = types.Equals(types.Int(0), types.None)
	require.True(t, valid)
	require.False(t, ok)
}

func TestEqualsHandleIdentity(t *testing.T) {
	v1 := types.NewVec()
	v2 := types.NewVec()

	ok, valid := types.Equals(v1, v1)
	require.True(t, valid)
	require.True(t, ok)

	ok, valid = types.Equals(v1, v2)
	require.True(t, valid)
	require.False(t, ok)
}

func TestEqualsMismatchedTypes(t *testing.T) {
	_, valid := types.Equals(types.Int(1), types.String("1"))
	require.False(t, valid)
}

func TestOrdered(t *testing.T) {
	require.Equal(t, -1, types.Int(1).Cmp(types.Int(2)))
	require.Equal(t, +1, types.Int(2).Cmp(types.Int(1)))
	require.Equal(t, 0, types.Int(2).Cmp(types.Int(2)))

	require.Equal(t, -1, types.Float(1.5).Cmp(types.Float(2.5)))
}

func TestVecAliasing(t *testing.T) {
	v := types.NewVec()
	alias := v
	v.Push(types.Int(99))

	require.Equal(t, 1, alias.Len())
	got, ok := alias.Get(0)
	require.True(t, ok)
	require.Equal(t, types.Int(99), got)
}

func TestMapRoundTrip(t *testing.T) {
	m := types.NewMap(0)
	m.Set("k", types.String("hi"))

	got, ok := m.Get("k")
	require.True(t, ok)
	require.Equal(t, types.String("hi"), got)

	_, ok = m.Get("missing")
	require.False(t, ok)
}

func TestFloatString(t *testing.T) {
	require.Equal(t, "3.5", types.Float(3.5).String())
	require.Equal(t, "3", types.Float(3).String())
}

func TestIntString(t *testing.T) {
	require.Equal(t, "-42", types.Int(-42).String())
}
