package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mScule/stall/lang/opcode"
	"github.com/mScule/stall/lang/parser"
)

func TestParseReturnOnlyFunction(t *testing.T) {
	fns, err := parser.New("main { return }", "").ParseAll()
	require.NoError(t, err)
	require.Len(t, fns, 1)
	require.Equal(t, "main", fns[0].Name)
	require.Equal(t, []opcode.Op{{Code: opcode.ReturnCall, SrcLine: 1}}, fns[0].Fn.Body)
}

func TestParsePrefix(t *testing.T) {
	fns, err := parser.New("main { return }", "std/io.").ParseAll()
	require.NoError(t, err)
	require.Equal(t, "std/io.main", fns[0].Name)
}

func TestParseLiterals(t *testing.T) {
	fns, err := parser.New(`f { 3 i64 2.5 f64 "hi" none true false return }`, "").ParseAll()
	require.NoError(t, err)
	body := fns[0].Fn.Body
	require.Len(t, body, 7)
	require.Equal(t, opcode.LitInt, body[0].Lit.Kind)
	require.EqualValues(t, 3, body[0].Lit.Int)
	require.Equal(t, opcode.LitFloat, body[1].Lit.Kind)
	require.InDelta(t, 2.5, body[1].Lit.Float, 0.0001)
	require.Equal(t, opcode.LitString, body[2].Lit.Kind)
	require.Equal(t, "hi", body[2].Lit.Str)
	require.Equal(t, opcode.LitNone, body[3].Lit.Kind)
	require.Equal(t, opcode.LitBool, body[4].Lit.Kind)
	require.True(t, body[4].Lit.Bool)
	require.False(t, body[5].Lit.Bool)
}

func TestParseEveryMnemonic(t *testing.T) {
	src := `f {
		get_const "bar"
		new_scope
		end_scope
		new_var
		set_var 0 1
		get_var 2 3
		call_func
		call_sys "sys/print"
		goto 5
		if_true_goto 6
		if_false_goto 7
		gte
		lte
		gt
		lt
		eq
		not
		add
		sub
		mul
		div
		concat
		to_i64
		to_f64
		to_string
		new_vec
		push_to_vec
		get_vec_val
		set_vec_val
		new_map
		get_map_val
		set_map_val
		return
	}`
	fns, err := parser.New(src, "").ParseAll()
	require.NoError(t, err)
	body := fns[0].Fn.Body

	want := []opcode.Opcode{
		opcode.GetConst, opcode.NewScope, opcode.EndScope, opcode.NewVar,
		opcode.SetVar, opcode.GetVar, opcode.CallFunc, opcode.CallSys,
		opcode.GoTo, opcode.IfTrueGoTo, opcode.IfFalseGoTo,
		opcode.Gte, opcode.Lte, opcode.Gt, opcode.Lt, opcode.Eq, opcode.Not,
		opcode.Add, opcode.Sub, opcode.Mul, opcode.Div, opcode.Concat,
		opcode.ToInt, opcode.ToFloat, opcode.ToString,
		opcode.NewVec, opcode.PushToVec, opcode.GetVecVal, opcode.SetVecVal,
		opcode.NewMap, opcode.GetMapVal, opcode.SetMapVal,
		opcode.ReturnCall,
	}
	require.Len(t, body, len(want))
	for i, code := range want {
		require.Equalf(t, code, body[i].Code, "op %d", i)
	}

	require.Equal(t, "bar", body[0].Name)
	require.Equal(t, "sys/print", body[7].Name)
	require.Equal(t, 0, body[4].Offset)
	require.Equal(t, 1, body[4].Index)
	require.Equal(t, 2, body[5].Offset)
	require.Equal(t, 3, body[5].Index)
	require.Equal(t, 5, body[8].Target)
	require.Equal(t, 6, body[9].Target)
	require.Equal(t, 7, body[10].Target)
}

func TestParseMissingTypeHintIsFatal(t *testing.T) {
	_, err := parser.New(`foo { add 1 }`, "").ParseAll()
	require.Error(t, err)
}

func TestParseUnknownMnemonicIsFatal(t *testing.T) {
	_, err := parser.New(`foo { bogus_op }`, "").ParseAll()
	require.Error(t, err)
}

func TestParseUnterminatedBodyIsFatal(t *testing.T) {
	_, err := parser.New(`foo { return`, "").ParseAll()
	require.Error(t, err)
}
