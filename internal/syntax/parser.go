package syntax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Parse tree produced by participle. It is converted into the AST in ast.go
// so the evaluator never sees grammar details.

type fileNode struct {
	Statements []*pipelineNode `( @@ | Sep )*`
}

type pipelineNode struct {
	Pos   lexer.Position
	Calls []*callNode `@@ ( "|" Sep* @@ )*`
}

type callNode struct {
	Pos      lexer.Position
	Function *exprNode   `@@`
	Args     []*exprNode `@@*`
}

type exprNode struct {
	Pos    lexer.Position
	Number *float64      `  @Number`
	Raw    *string       `| @RawString`
	Quoted *string       `| @String`
	Var    *string       `| @Var`
	Word   *string       `| @Word`
	Block  *blockNode    `| @@`
	Nested *pipelineNode `| "(" Sep* @@ Sep* ")"`
}

type blockNode struct {
	Pos        lexer.Position
	Params     *paramsNode     `"{" @@?`
	Statements []*pipelineNode `( @@ | Sep )* "}"`
}

type paramsNode struct {
	Names []string `"|" @Word* "|"`
}

var scriptParser = participle.MustBuild[fileNode](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace", "Comment", "Continuation"),
	participle.UseLookahead(2),
)

// Parse turns src into a Block holding its top-level statements.
func Parse(src *Source) (*Block, error) {
	tree, err := scriptParser.ParseString(src.DisplayName(), src.Text)
	if err != nil {
		return nil, toError(err)
	}

	block := &Block{Location: Location{Filename: src.DisplayName(), Line: 1, Column: 1}}
	for _, stmt := range tree.Statements {
		pipeline, err := stmt.convert()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, pipeline)
	}
	return block, nil
}

// toError normalizes participle and lexer failures into *Error.
func toError(err error) error {
	var located interface {
		Message() string
		Position() lexer.Position
	}
	if errors.As(err, &located) {
		return &Error{Message: located.Message(), Location: location(located.Position())}
	}
	return &Error{Message: err.Error()}
}

func location(pos lexer.Position) Location {
	return Location{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}
}

func (n *pipelineNode) convert() (*Pipeline, error) {
	pipeline := &Pipeline{Location: location(n.Pos)}
	for _, c := range n.Calls {
		call, err := c.convert()
		if err != nil {
			return nil, err
		}
		pipeline.Calls = append(pipeline.Calls, call)
	}
	return pipeline, nil
}

func (n *callNode) convert() (Call, error) {
	args := make([]Expr, 0, len(n.Args))
	for _, a := range n.Args {
		arg, err := a.convert()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if n.Function.Word != nil {
		return &NamedCall{Path: splitPath(*n.Function.Word), Args: args, Location: location(n.Pos)}, nil
	}

	fn, err := n.Function.convert()
	if err != nil {
		return nil, err
	}
	return &UnnamedCall{Function: fn, Args: args, Location: location(n.Pos)}, nil
}

func (n *exprNode) convert() (Expr, error) {
	switch {
	case n.Number != nil:
		return &NumberLiteral{Value: *n.Number}, nil
	case n.Raw != nil:
		return &StringLiteral{Value: strings.Trim(*n.Raw, "'")}, nil
	case n.Quoted != nil:
		return parseInterpolated(*n.Quoted, location(n.Pos))
	case n.Var != nil:
		return parseVariable(*n.Var, location(n.Pos))
	case n.Word != nil:
		return &StringLiteral{Value: *n.Word}, nil
	case n.Block != nil:
		return n.Block.convert()
	case n.Nested != nil:
		return n.Nested.convert()
	}
	return nil, &Error{Message: "empty expression", Location: location(n.Pos)}
}

func (n *blockNode) convert() (*Block, error) {
	block := &Block{Location: location(n.Pos)}
	if n.Params != nil {
		block.Params = n.Params.Names
	}
	for _, stmt := range n.Statements {
		pipeline, err := stmt.convert()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, pipeline)
	}
	return block, nil
}

// splitPath splits a dotted name. Words with empty segments, such as
// "./script.rt", are kept whole.
func splitPath(word string) []string {
	parts := strings.Split(word, ".")
	for _, p := range parts {
		if p == "" {
			return []string{word}
		}
	}
	return parts
}

func parseVariable(token string, loc Location) (Expr, error) {
	name := strings.TrimPrefix(token, "$")
	if strings.HasPrefix(name, "{") {
		name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")
	}
	path := strings.Split(name, ".")
	for _, p := range path {
		if p == "" {
			return nil, &Error{
				Message:  fmt.Sprintf("invalid variable reference %q", token),
				Location: loc,
				Help:     "variable paths look like $name or ${table.key}",
			}
		}
	}
	return &Substitution{Path: path}, nil
}

// parseInterpolated processes escapes in a double-quoted token and splits
// out $name and ${path} substitutions.
func parseInterpolated(token string, loc Location) (Expr, error) {
	body := token[1 : len(token)-1]

	var parts []Expr
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, &StringLiteral{Value: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			switch body[i] {
			case 'n':
				text.WriteByte('\n')
			case 't':
				text.WriteByte('\t')
			case 'r':
				text.WriteByte('\r')
			default:
				text.WriteByte(body[i])
			}
		case c == '$':
			path, n, err := scanSubstitution(body[i:])
			if err != nil {
				return nil, &Error{Message: err.Error(), Location: loc}
			}
			if n == 0 {
				text.WriteByte(c)
				continue
			}
			flush()
			parts = append(parts, &Substitution{Path: path})
			i += n - 1
		default:
			text.WriteByte(c)
		}
	}

	if len(parts) == 0 {
		return &StringLiteral{Value: text.String()}, nil
	}
	flush()
	return &InterpolatedString{Parts: parts}, nil
}

// scanSubstitution reads a substitution at the start of s (which begins with
// '$') and reports how many bytes it spans. A bare '$' spans zero bytes.
func scanSubstitution(s string) ([]string, int, error) {
	if len(s) > 1 && s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return nil, 0, errors.New("unterminated ${ in string")
		}
		path := strings.Split(s[2:end], ".")
		for _, p := range path {
			if p == "" {
				return nil, 0, fmt.Errorf("invalid substitution %q in string", s[:end+1])
			}
		}
		return path, end + 1, nil
	}

	var path []string
	i := 1
	for {
		start := i
		for i < len(s) && isNameByte(s[i], i == start) {
			i++
		}
		if i == start {
			// A trailing '.' belongs to the surrounding text.
			if len(path) > 0 {
				i--
			}
			break
		}
		path = append(path, s[start:i])
		if i >= len(s) || s[i] != '.' {
			break
		}
		i++
	}
	if len(path) == 0 {
		return nil, 0, nil
	}
	return path, i, nil
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c >= '0' && c <= '9', c == '-':
		return !first
	}
	return false
}
