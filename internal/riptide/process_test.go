package riptide_test

import (
	"os/exec"
	"testing"

	"riptide/internal/riptide"
	"riptide/internal/scripttest"
)

func TestProcessModule(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	tests := []struct {
		name   string
		script string
		stdin  string
		want   riptide.Value
	}{
		{
			name:   "exit status",
			script: "def p (require process); p.run sh -c 'exit 3'",
			want:   riptide.Number(3),
		},
		{
			name:   "command as a pipeline stage",
			script: "def p (require process); print hello | p.run sh -c 'cat; echo' | read",
			want:   riptide.String("hello\n"),
		},
		{
			name:   "spawn and wait",
			script: "def p (require process); p.wait (p.spawn sh -c 'exit 5')",
			want:   riptide.Number(5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scripttest.Run(t, scripttest.TestCase{Script: tt.script, Stdin: tt.stdin})
			if result.Err != nil {
				t.Fatalf("unexpected error: %v", result.Err)
			}
			if !riptide.Equal(result.Value, tt.want) {
				t.Errorf("value = %q, want %q", result.Value, tt.want)
			}
		})
	}
}

func TestProcessStartFailure(t *testing.T) {
	result := scripttest.Run(t, scripttest.TestCase{
		Script: "def p (require process); p.run /definitely/not/a/program",
	})
	if result.Err == nil {
		t.Fatalf("expected an exception")
	}
}
