package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"riptide/internal/config"
	"riptide/internal/riptide"
	"riptide/internal/stream"
	"riptide/internal/syntax"
)

const historyFile = ".riptide_history"

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  riptide [-v] [-c command]... [script.rt|- [args...]] - Run commands, a script, or a REPL")
	fmt.Println("  riptide lex <script.rt>                             - Debug lexer output")
	fmt.Println("  riptide ast <script.rt>                             - Debug parser AST")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) > 0 {
		switch argv[0] {
		case "lex", "ast":
			if len(argv) < 2 {
				fmt.Printf("Usage: riptide %s <script.rt>\n", argv[0])
				return 1
			}
			if argv[0] == "lex" {
				return lexDebug(argv[1])
			}
			return astDebug(argv[1])
		case "-h", "--help", "help":
			usage()
			return 0
		}
	}

	opts, err := parseFlags(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riptide: %v\n", err)
		usage()
		return 2
	}
	commands, verbosity, argv := opts.commands, opts.verbosity, opts.args

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "riptide: %v\n", err)
		return 1
	}

	level := cfg.SlogLevel() - slog.Level(4*verbosity)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rt := riptide.New(
		riptide.WithConfig(cfg),
		riptide.WithLogger(logger),
	)

	switch {
	case len(commands) > 0:
		for _, command := range commands {
			_, err := rt.ExecuteString("", command)
			if code, done := finish(rt, err); done {
				return code
			}
		}
		return 0

	case len(argv) > 0:
		rt.SetGlobal("argv", scriptArgv(argv))
		if argv[0] == "-" {
			return runStdin(rt)
		}

		_, err := rt.ExecuteFile(argv[0])
		code, _ := finish(rt, err)
		return code

	case !stream.IsTerminal(os.Stdin):
		return runStdin(rt)
	}

	return repl(rt)
}

type options struct {
	commands  []string
	verbosity int
	args      []string
}

// parseFlags splits leading flags from the script path and its arguments.
// A lone "-" is not a flag: it names stdin as the script.
func parseFlags(argv []string) (options, error) {
	var opts options
flags:
	for len(argv) > 0 && len(argv[0]) > 1 && strings.HasPrefix(argv[0], "-") {
		switch arg := argv[0]; {
		case arg == "-c":
			if len(argv) < 2 {
				return opts, errors.New("-c requires a command")
			}
			opts.commands = append(opts.commands, argv[1])
			argv = argv[1:]
		case strings.Trim(arg, "v") == "-":
			opts.verbosity += len(arg) - 1
		case arg == "--":
			argv = argv[1:]
			break flags
		default:
			return opts, fmt.Errorf("unknown flag %s", arg)
		}
		argv = argv[1:]
	}
	opts.args = argv
	return opts, nil
}

// scriptArgv builds the argv global: the script path followed by its
// arguments.
func scriptArgv(args []string) riptide.List {
	list := make(riptide.List, 0, len(args))
	for _, a := range args {
		list = append(list, riptide.String(a))
	}
	return list
}

func runStdin(rt *riptide.Runtime) int {
	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riptide: reading stdin: %v\n", err)
		return 1
	}
	_, err = rt.Execute("", syntax.NewSource("<stdin>", string(text)))
	code, _ := finish(rt, err)
	return code
}

// finish reports err and returns the process exit code. done is true when
// execution should stop.
func finish(rt *riptide.Runtime, err error) (code int, done bool) {
	if err != nil {
		report(err)
		return 1, true
	}
	if code, ok := rt.ExitCode(); ok {
		return code, true
	}
	return 0, false
}

func report(err error) {
	var syntaxErr *syntax.Error
	if errors.As(err, &syntaxErr) {
		fmt.Fprint(os.Stderr, syntax.FormatError(syntaxErr, nil))
		return
	}

	var exc *riptide.Exception
	if errors.As(err, &exc) {
		fmt.Fprintf(os.Stderr, "error: %s (%s)\n", exc.Value, exc.Kind)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

// repl reads lines interactively. All lines share one scope, so variables
// persist between them.
func repl(rt *riptide.Runtime) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	bindings := riptide.NewTable()
	for {
		line, err := ln.Prompt("$ ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		src := syntax.NewSource("<stdin>", line)
		v, err := rt.ExecuteInScope("", src, bindings)
		if err != nil {
			var syntaxErr *syntax.Error
			if errors.As(err, &syntaxErr) {
				fmt.Fprint(os.Stderr, syntax.FormatError(syntaxErr, src))
			} else {
				report(err)
			}
			continue
		}
		if code, ok := rt.ExitCode(); ok {
			return code
		}
		if !riptide.IsNil(v) {
			fmt.Println(v)
		}
	}
}

func lexDebug(filename string) int {
	src, err := syntax.OpenSource(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return 1
	}

	fmt.Printf("📄 Lexing: %s\n", filename)
	fmt.Println("─────────────────────────────────────────────────────────────────")
	fmt.Printf("%-4s %-3s %-15s %s\n", "Line", "Col", "Kind", "Value")
	fmt.Println("─────────────────────────────────────────────────────────────────")

	tokens, err := syntax.Tokens(src)
	for _, token := range tokens {
		value := token.Value
		if token.Kind == "Sep" && value == "\n" {
			value = "\\n"
		} else if len(value) > 50 {
			value = value[:47] + "..."
		}
		fmt.Printf("%-4d %-3d %-15s %s\n", token.Line, token.Column, token.Kind, value)
	}
	if err != nil {
		fmt.Printf("Lexer error: %v\n", err)
		return 1
	}

	fmt.Println("─────────────────────────────────────────────────────────────────")
	fmt.Printf("✅ Lexed %d tokens\n", len(tokens))
	return 0
}

func astDebug(filename string) int {
	src, err := syntax.OpenSource(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return 1
	}

	block, err := syntax.Parse(src)
	if err != nil {
		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			fmt.Print(syntax.FormatError(syntaxErr, src))
		} else {
			fmt.Printf("Parse error: %v\n", err)
		}
		return 1
	}

	fmt.Printf("🌲 Abstract Syntax Tree: %s\n", filename)
	fmt.Println("═════════════════════════════════════════════════════════════════")
	printStatements(block.Statements, "  ")
	fmt.Println("═════════════════════════════════════════════════════════════════")
	fmt.Printf("✅ Parsed %d statements\n", len(block.Statements))
	return 0
}

func printStatements(statements []*syntax.Pipeline, indent string) {
	for i, stmt := range statements {
		if len(stmt.Calls) == 1 {
			fmt.Printf("%s%d. %s\n", indent, i+1, describeCall(stmt.Calls[0]))
			printNested(stmt.Calls[0], indent+"   ")
			continue
		}
		fmt.Printf("%s%d. PIPELINE (%d calls)\n", indent, i+1, len(stmt.Calls))
		for j, call := range stmt.Calls {
			fmt.Printf("%s  %d: %s\n", indent, j+1, describeCall(call))
			printNested(call, indent+"     ")
		}
	}
}

func describeCall(call syntax.Call) string {
	pos := call.Position()
	return fmt.Sprintf("%-40s (%d:%d)", call.String(), pos.Line, pos.Column)
}

// printNested expands block literal arguments.
func printNested(call syntax.Call, indent string) {
	for _, arg := range call.Arguments() {
		if block, ok := arg.(*syntax.Block); ok {
			fmt.Printf("%s[block", indent)
			if len(block.Params) > 0 {
				fmt.Printf(" |%s|", strings.Join(block.Params, " "))
			}
			fmt.Printf("] (%d statements)\n", len(block.Statements))
			printStatements(block.Statements, indent+"  ")
		}
	}
}
