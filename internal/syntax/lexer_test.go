package syntax

import (
	"slices"
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple words",
			input:    "echo hello world",
			expected: []string{"Word", "Word", "Word"},
		},
		{
			name:     "quoted strings",
			input:    `echo "hello world" 'raw string'`,
			expected: []string{"Word", "String", "RawString"},
		},
		{
			name:     "variables",
			input:    "echo $var ${config.field} $a.b-c",
			expected: []string{"Word", "Var", "Var", "Var"},
		},
		{
			name:     "numbers",
			input:    "version 2.0 count -123 v1",
			expected: []string{"Word", "Number", "Word", "Number", "Word"},
		},
		{
			name:     "separators",
			input:    "a; b\nc",
			expected: []string{"Word", "Sep", "Word", "Sep", "Word"},
		},
		{
			name:     "comments",
			input:    "a # trailing note",
			expected: []string{"Word", "Comment"},
		},
		{
			name:     "blocks and pipes",
			input:    "{|x| f} | g",
			expected: []string{"Punct", "Punct", "Word", "Punct", "Word", "Punct", "Punct", "Word"},
		},
		{
			name:     "line continuation",
			input:    "a \\\nb",
			expected: []string{"Word", "Continuation", "Word"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokens(NewSource("test", tt.input))
			if err != nil {
				t.Fatalf("Tokens: %v", err)
			}

			var kinds []string
			for _, tok := range tokens {
				if tok.Kind != "Whitespace" {
					kinds = append(kinds, tok.Kind)
				}
			}
			if !slices.Equal(kinds, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, kinds)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := Tokens(NewSource("test", "one\n  two"))
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}

	last := tokens[len(tokens)-1]
	if last.Value != "two" || last.Line != 2 || last.Column != 3 {
		t.Errorf("Expected two at 2:3, got %q at %d:%d", last.Value, last.Line, last.Column)
	}
}
