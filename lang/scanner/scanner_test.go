package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mScule/stall/lang/scanner"
	"github.com/mScule/stall/lang/token"
)

func TestScanAll(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"braces", "main { }", []token.Kind{token.WORD, token.LBRACE, token.RBRACE, token.EOF}},
		{"number", "42 -3.5 1_000", []token.Kind{token.NUMBER, token.NUMBER, token.NUMBER, token.EOF}},
		{"string", `"hi\n"`, []token.Kind{token.STRING, token.EOF}},
		{"comment to pipe", "add |skip this| sub", []token.Kind{token.WORD, token.WORD, token.EOF}},
		{"comment to newline", "add |skip\nsub", []token.Kind{token.WORD, token.WORD, token.EOF}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := scanner.ScanAll(tc.src)
			require.NoError(t, err)
			require.Len(t, toks, len(tc.want))
			for i, k := range tc.want {
				require.Equalf(t, k, toks[i].Kind, "token %d", i)
			}
		})
	}
}

func TestScanAllErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unclosed comment", "add |never closes"},
		{"unterminated string", `"never closes`},
		{"bad escape", `"\q"`},
		{"second dot", "1.2.3 i64"},
		{"unknown char", "add # sub"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scanner.ScanAll(tc.src)
			require.Error(t, err)
		})
	}
}

func TestScanStringEscapes(t *testing.T) {
	toks, err := scanner.ScanAll(`"a\tb\nc\\d\"e"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, "a\tb\nc\\d\"e", toks[0].Text)
}

func TestScanNumberText(t *testing.T) {
	toks, err := scanner.ScanAll("-1_000.25")
	require.NoError(t, err)
	require.Equal(t, "-1_000.25", toks[0].Text)
}
