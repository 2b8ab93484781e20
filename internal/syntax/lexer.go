package syntax

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// scriptLexer tokenizes riptide source. Rule order matters: the first rule
// matching at the current offset wins, so Number precedes Word.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Continuation", Pattern: `\\\r?\n`},
	{Name: "Sep", Pattern: `[\n;]`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?\b`},
	{Name: "RawString", Pattern: `'[^']*'`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Var", Pattern: `\$\{[^}]*\}|\$[A-Za-z_][\w-]*(\.[\w-]+)*`},
	{Name: "Punct", Pattern: `[{}()|]`},
	{Name: "Word", Pattern: `[^\s{}()|;#"'$]+`},
})

// Token is a lexed token as shown by debugging tools.
type Token struct {
	Kind   string
	Value  string
	Line   int
	Column int
}

// Tokens lexes src without parsing it. Tokens that the parser elides
// (whitespace, comments) are included.
func Tokens(src *Source) ([]Token, error) {
	lex, err := scriptLexer.Lex(src.DisplayName(), strings.NewReader(src.Text))
	if err != nil {
		return nil, toError(err)
	}

	names := lexer.SymbolsByRune(scriptLexer)

	var tokens []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return tokens, toError(err)
		}
		if tok.EOF() {
			return tokens, nil
		}
		tokens = append(tokens, Token{
			Kind:   names[tok.Type],
			Value:  tok.Value,
			Line:   tok.Pos.Line,
			Column: tok.Pos.Column,
		})
	}
}
