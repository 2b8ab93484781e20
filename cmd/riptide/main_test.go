package main

import (
	"slices"
	"testing"

	"riptide/internal/riptide"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		argv      []string
		commands  []string
		verbosity int
		args      []string
		wantErr   bool
	}{
		{name: "script and args", argv: []string{"run.rt", "a", "-v"}, args: []string{"run.rt", "a", "-v"}},
		{name: "commands", argv: []string{"-c", "println a", "-c", "println b"}, commands: []string{"println a", "println b"}},
		{name: "stacked verbosity", argv: []string{"-vv", "-v", "run.rt"}, verbosity: 3, args: []string{"run.rt"}},
		{name: "lone dash is stdin", argv: []string{"-v", "-", "x"}, verbosity: 1, args: []string{"-", "x"}},
		{name: "double dash ends flags", argv: []string{"--", "-c"}, args: []string{"-c"}},
		{name: "missing command", argv: []string{"-c"}, wantErr: true},
		{name: "unknown flag", argv: []string{"-x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.argv)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags(%q) error = %v, wantErr %v", tt.argv, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !slices.Equal(opts.commands, tt.commands) {
				t.Errorf("commands = %q, want %q", opts.commands, tt.commands)
			}
			if opts.verbosity != tt.verbosity {
				t.Errorf("verbosity = %d, want %d", opts.verbosity, tt.verbosity)
			}
			if !slices.Equal(opts.args, tt.args) {
				t.Errorf("args = %q, want %q", opts.args, tt.args)
			}
		})
	}
}

func TestScriptArgvStartsWithPath(t *testing.T) {
	got := scriptArgv([]string{"run.rt", "one", "two"})
	want := riptide.List{riptide.String("run.rt"), riptide.String("one"), riptide.String("two")}
	if !riptide.Equal(got, want) {
		t.Errorf("argv = %v, want %v", got, want)
	}
}
