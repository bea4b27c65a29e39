// Package token defines the lexical token kinds produced by the scanner and
// consumed by the parser.
package token

// Kind identifies the lexical class of a Token.
type Kind int8

const ( //nolint:revive
	ILLEGAL Kind = iota
	EOF

	LBRACE // {
	RBRACE // }

	WORD   // bare identifier / mnemonic, e.g. add, new_var, i64
	NUMBER // numeric literal, digits/underscores/one leading '-'/one '.'
	STRING // "quoted string"

	maxKind
)

func (k Kind) String() string { return kindNames[k] }

var kindNames = [...]string{
	ILLEGAL: "illegal token",
	EOF:     "end of file",
	LBRACE:  "{",
	RBRACE:  "}",
	WORD:    "word",
	NUMBER:  "number literal",
	STRING:  "string literal",
}

// Token pairs a Kind with the source text it was scanned from (the text is
// empty for LBRACE/RBRACE/EOF) and the position where it starts.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return t.Kind.String() + " " + t.Text
}
