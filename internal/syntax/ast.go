package syntax

import (
	"strconv"
	"strings"
)

// Expr is any node that evaluates to a single value.
type Expr interface {
	String() string
	exprNode()
}

// Call is one stage of a pipeline.
type Call interface {
	Arguments() []Expr
	Position() Location
	String() string
	callNode()
}

// Block is a sequence of pipelines. It is both the root of a parsed file and
// the body of a block literal, in which case it may declare parameters.
type Block struct {
	Params     []string
	Statements []*Pipeline
	Location   Location
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	if len(b.Params) > 0 {
		sb.WriteString(" |" + strings.Join(b.Params, " ") + "|")
	}
	for i, stmt := range b.Statements {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(" " + stmt.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

func (*Block) exprNode() {}

// Pipeline is one or more calls joined by '|'.
type Pipeline struct {
	Calls    []Call
	Location Location
}

func (p *Pipeline) String() string {
	parts := make([]string, len(p.Calls))
	for i, call := range p.Calls {
		parts[i] = call.String()
	}
	return strings.Join(parts, " | ")
}

func (*Pipeline) exprNode() {}

// NamedCall invokes a function by a dotted path known at parse time.
type NamedCall struct {
	Path     []string
	Args     []Expr
	Location Location
}

func (c *NamedCall) Arguments() []Expr  { return c.Args }
func (c *NamedCall) Position() Location { return c.Location }
func (c *NamedCall) Name() string       { return strings.Join(c.Path, ".") }

func (c *NamedCall) String() string {
	return joinCall(c.Name(), c.Args)
}

func (*NamedCall) callNode() {}

// UnnamedCall invokes whatever its function expression evaluates to.
type UnnamedCall struct {
	Function Expr
	Args     []Expr
	Location Location
}

func (c *UnnamedCall) Arguments() []Expr  { return c.Args }
func (c *UnnamedCall) Position() Location { return c.Location }

func (c *UnnamedCall) String() string {
	return joinCall(c.Function.String(), c.Args)
}

func (*UnnamedCall) callNode() {}

func joinCall(head string, args []Expr) string {
	parts := []string{head}
	for _, arg := range args {
		if p, ok := arg.(*Pipeline); ok {
			parts = append(parts, "("+p.String()+")")
			continue
		}
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, " ")
}

type NumberLiteral struct {
	Value float64
}

func (e *NumberLiteral) String() string {
	return strconv.FormatFloat(e.Value, 'f', -1, 64)
}

func (*NumberLiteral) exprNode() {}

type StringLiteral struct {
	Value string
}

func (e *StringLiteral) String() string {
	return strconv.Quote(e.Value)
}

func (*StringLiteral) exprNode() {}

// InterpolatedString is a double-quoted string containing substitutions.
// Parts are StringLiterals and Substitutions in source order.
type InterpolatedString struct {
	Parts []Expr
}

func (e *InterpolatedString) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, part := range e.Parts {
		switch p := part.(type) {
		case *StringLiteral:
			sb.WriteString(p.Value)
		case *Substitution:
			sb.WriteString("${" + strings.Join(p.Path, ".") + "}")
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (*InterpolatedString) exprNode() {}

// Substitution references a variable, optionally followed by table keys.
type Substitution struct {
	Path []string
}

func (e *Substitution) String() string {
	return "$" + strings.Join(e.Path, ".")
}

func (*Substitution) exprNode() {}
