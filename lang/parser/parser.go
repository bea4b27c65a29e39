// Package parser turns .funcs source text into (name, *types.Function)
// pairs. It is driven directly by lang/scanner: there is no intermediate
// AST, since source text already denotes a flat sequence of opcodes with
// compiler-assigned operands (see spec §4.4 and §9's note on (offset,index)
// addressing being assigned upstream of this VM).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mScule/stall/lang/opcode"
	"github.com/mScule/stall/lang/scanner"
	"github.com/mScule/stall/lang/token"
	"github.com/mScule/stall/lang/types"
)

// Error reports a single parse failure: an unexpected token, an unknown
// mnemonic, a malformed operand, or similar. It names the offending
// construct, per spec §7.1.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// NamedFunction pairs a function's fully qualified registered name with its
// compiled body.
type NamedFunction struct {
	Name string
	Fn   *types.Function
}

// Parser consumes a token stream from a Scanner and emits NamedFunction
// values, one per top-level WORD "{" ... "}" definition.
type Parser struct {
	sc     *scanner.Scanner
	prefix string

	have bool
	tok  token.Token
}

// New creates a Parser over src. prefix, if non-empty, is prepended verbatim
// to every top-level function's local name to form its registered name
// (used by the registry to namespace functions by source-file path).
func New(src, prefix string) *Parser {
	return &Parser{sc: scanner.New(src), prefix: prefix}
}

func (p *Parser) next() token.Token {
	if p.have {
		p.have = false
		return p.tok
	}
	return p.sc.Next()
}

func (p *Parser) pushback(tok token.Token) {
	p.tok = tok
	p.have = true
}

// ParseAll parses every top-level definition in the source text.
func (p *Parser) ParseAll() ([]NamedFunction, error) {
	var out []NamedFunction
	for {
		tok := p.next()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind != token.WORD {
			return out, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("expected function name, got %s", tok)}
		}
		localName := tok.Text

		brace := p.next()
		if brace.Kind != token.LBRACE {
			return out, &Error{Pos: brace.Pos, Msg: fmt.Sprintf("expected '{' after %q, got %s", localName, brace)}
		}

		body, err := p.parseBody()
		if err != nil {
			return out, err
		}

		out = append(out, NamedFunction{
			Name: p.prefix + localName,
			Fn:   &types.Function{Name: p.prefix + localName, Body: body},
		})
	}
	if err := p.sc.Errs(); err != nil {
		return out, err
	}
	return out, nil
}

// parseBody parses the token stream between (and including the consumption
// of) an opening '{' already consumed by the caller, up to and including the
// closing '}'.
func (p *Parser) parseBody() ([]opcode.Op, error) {
	var body []opcode.Op
	for {
		tok := p.next()
		switch tok.Kind {
		case token.RBRACE:
			return body, nil
		case token.EOF:
			return nil, &Error{Pos: tok.Pos, Msg: "unexpected end of file, expected '}'"}
		case token.STRING:
			body = append(body, opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitString, Str: tok.Text}, SrcLine: line(tok.Pos)})
		case token.NUMBER:
			op, err := p.parseNumberLiteral(tok)
			if err != nil {
				return nil, err
			}
			body = append(body, op)
		case token.WORD:
			op, err := p.parseWordOp(tok)
			if err != nil {
				return nil, err
			}
			body = append(body, op)
		default:
			return nil, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %s", tok)}
		}
	}
}

func line(p token.Pos) int {
	l, _ := p.LineCol()
	return l
}

// parseNumberLiteral handles a bare numeric literal, which must be followed
// by a type-hint word: "i64" for Int, "f64" for Float.
func (p *Parser) parseNumberLiteral(numTok token.Token) (opcode.Op, error) {
	hint := p.next()
	if hint.Kind != token.WORD {
		return opcode.Op{}, &Error{Pos: hint.Pos, Msg: fmt.Sprintf("number literal %q must be followed by a type hint, got %s", numTok.Text, hint)}
	}

	clean := strings.ReplaceAll(numTok.Text, "_", "")
	switch hint.Text {
	case "i64":
		n, err := strconv.ParseInt(clean, 10, 64)
		if err != nil {
			return opcode.Op{}, &Error{Pos: numTok.Pos, Msg: fmt.Sprintf("invalid i64 literal %q: %s", numTok.Text, err)}
		}
		return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitInt, Int: n}, SrcLine: line(numTok.Pos)}, nil
	case "f64":
		n, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return opcode.Op{}, &Error{Pos: numTok.Pos, Msg: fmt.Sprintf("invalid f64 literal %q: %s", numTok.Text, err)}
		}
		return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitFloat, Float: n}, SrcLine: line(numTok.Pos)}, nil
	default:
		return opcode.Op{}, &Error{Pos: hint.Pos, Msg: fmt.Sprintf("unrecognized type hint %q, want i64 or f64", hint.Text)}
	}
}

// parseWordOp handles a WORD token that is either a bare keyword literal
// (none/true/false) or a mnemonic, consuming whatever operand tokens the
// mnemonic requires.
func (p *Parser) parseWordOp(tok token.Token) (opcode.Op, error) {
	switch tok.Text {
	case "none":
		return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitNone}, SrcLine: line(tok.Pos)}, nil
	case "true":
		return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitBool, Bool: true}, SrcLine: line(tok.Pos)}, nil
	case "false":
		return opcode.Op{Code: opcode.GetLit, Lit: opcode.Literal{Kind: opcode.LitBool, Bool: false}, SrcLine: line(tok.Pos)}, nil
	}

	ln := line(tok.Pos)
	switch tok.Text {
	case "get_const":
		name, err := p.expectWordOrString(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.GetConst, Name: name, SrcLine: ln}, nil
	case "new_scope":
		return opcode.Op{Code: opcode.NewScope, SrcLine: ln}, nil
	case "end_scope":
		return opcode.Op{Code: opcode.EndScope, SrcLine: ln}, nil
	case "new_var":
		return opcode.Op{Code: opcode.NewVar, SrcLine: ln}, nil
	case "set_var":
		o, i, err := p.expectTwoUints(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.SetVar, Offset: o, Index: i, SrcLine: ln}, nil
	case "get_var":
		o, i, err := p.expectTwoUints(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.GetVar, Offset: o, Index: i, SrcLine: ln}, nil
	case "call_func":
		return opcode.Op{Code: opcode.CallFunc, SrcLine: ln}, nil
	case "call_sys":
		name, err := p.expectString(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.CallSys, Name: name, SrcLine: ln}, nil
	case "return":
		return opcode.Op{Code: opcode.ReturnCall, SrcLine: ln}, nil
	case "goto":
		i, err := p.expectUint(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.GoTo, Target: i, SrcLine: ln}, nil
	case "if_true_goto":
		i, err := p.expectUint(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.IfTrueGoTo, Target: i, SrcLine: ln}, nil
	case "if_false_goto":
		i, err := p.expectUint(tok.Text)
		if err != nil {
			return opcode.Op{}, err
		}
		return opcode.Op{Code: opcode.IfFalseGoTo, Target: i, SrcLine: ln}, nil
	case "gte":
		return opcode.Op{Code: opcode.Gte, SrcLine: ln}, nil
	case "lte":
		return opcode.Op{Code: opcode.Lte, SrcLine: ln}, nil
	case "gt":
		return opcode.Op{Code: opcode.Gt, SrcLine: ln}, nil
	case "lt":
		return opcode.Op{Code: opcode.Lt, SrcLine: ln}, nil
	case "eq":
		return opcode.Op{Code: opcode.Eq, SrcLine: ln}, nil
	case "not":
		return opcode.Op{Code: opcode.Not, SrcLine: ln}, nil
	case "add":
		return opcode.Op{Code: opcode.Add, SrcLine: ln}, nil
	case "sub":
		return opcode.Op{Code: opcode.Sub, SrcLine: ln}, nil
	case "mul":
		return opcode.Op{Code: opcode.Mul, SrcLine: ln}, nil
	case "div":
		return opcode.Op{Code: opcode.Div, SrcLine: ln}, nil
	case "concat":
		return opcode.Op{Code: opcode.Concat, SrcLine: ln}, nil
	case "to_i64":
		return opcode.Op{Code: opcode.ToInt, SrcLine: ln}, nil
	case "to_f64":
		return opcode.Op{Code: opcode.ToFloat, SrcLine: ln}, nil
	case "to_string":
		return opcode.Op{Code: opcode.ToString, SrcLine: ln}, nil
	case "new_vec":
		return opcode.Op{Code: opcode.NewVec, SrcLine: ln}, nil
	case "push_to_vec":
		return opcode.Op{Code: opcode.PushToVec, SrcLine: ln}, nil
	case "get_vec_val":
		return opcode.Op{Code: opcode.GetVecVal, SrcLine: ln}, nil
	case "set_vec_val":
		return opcode.Op{Code: opcode.SetVecVal, SrcLine: ln}, nil
	case "new_map":
		return opcode.Op{Code: opcode.NewMap, SrcLine: ln}, nil
	case "get_map_val":
		return opcode.Op{Code: opcode.GetMapVal, SrcLine: ln}, nil
	case "set_map_val":
		return opcode.Op{Code: opcode.SetMapVal, SrcLine: ln}, nil
	default:
		return opcode.Op{}, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("unknown mnemonic %q", tok.Text)}
	}
}

func (p *Parser) expectString(mnemonic string) (string, error) {
	tok := p.next()
	if tok.Kind != token.STRING {
		return "", &Error{Pos: tok.Pos, Msg: fmt.Sprintf("%s: expected string operand, got %s", mnemonic, tok)}
	}
	return tok.Text, nil
}

// expectWordOrString supports get_const's two operand forms: a bare WORD
// (the common case, a plain function name) or a STRING (for names that are
// not valid bare words).
func (p *Parser) expectWordOrString(mnemonic string) (string, error) {
	tok := p.next()
	if tok.Kind != token.WORD && tok.Kind != token.STRING {
		return "", &Error{Pos: tok.Pos, Msg: fmt.Sprintf("%s: expected name operand, got %s", mnemonic, tok)}
	}
	return tok.Text, nil
}

func (p *Parser) expectUint(mnemonic string) (int, error) {
	tok := p.next()
	if tok.Kind != token.NUMBER {
		return 0, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("%s: expected non-negative integer operand, got %s", mnemonic, tok)}
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil || n < 0 {
		return 0, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("%s: operand %q is not a non-negative integer", mnemonic, tok.Text)}
	}
	return n, nil
}

func (p *Parser) expectTwoUints(mnemonic string) (int, int, error) {
	a, err := p.expectUint(mnemonic)
	if err != nil {
		return 0, 0, err
	}
	b, err := p.expectUint(mnemonic)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
