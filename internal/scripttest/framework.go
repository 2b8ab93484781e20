// Package scripttest runs riptide scripts in-process and checks their output.
package scripttest

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"riptide/internal/config"
	"riptide/internal/riptide"
	"riptide/internal/stream"
	"riptide/internal/syntax"
)

// TestCase represents a single script test
type TestCase struct {
	Name     string            // Test name
	Script   string            // script content
	Modules  map[string]string // extra files on the module path, by name
	Stdin    string            // Input to provide
	ExitCode int               // Expected exit code
	Stdout   string            // Expected stdout content
	Stderr   string            // Expected stderr content
	Config   *config.Config    // overrides the default config
}

// Result is the observable outcome of running a script.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Value    riptide.Value
	Err      error
}

// Run executes testCase.Script in a fresh runtime. Module files are written
// to a temporary directory that is put on the module path.
func Run(t *testing.T, testCase TestCase) Result {
	t.Helper()

	cfg := config.Default()
	if testCase.Config != nil {
		cfg = *testCase.Config
	}

	if len(testCase.Modules) > 0 {
		dir := t.TempDir()
		for name, content := range testCase.Modules {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write module %s: %v", name, err)
			}
		}
		cfg.Modules.Path = append(cfg.Modules.Path, dir)
	}

	var stdout, stderr bytes.Buffer
	rt := riptide.New(
		riptide.WithConfig(cfg),
		riptide.WithStdio(stream.Stdio{
			In:  strings.NewReader(testCase.Stdin),
			Out: &stdout,
			Err: &stderr,
		}),
		riptide.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	v, err := rt.Execute("", syntax.NewSource("test.rt", testCase.Script))

	result := Result{Value: v, Err: err}
	if err != nil {
		fmt.Fprintf(&stderr, "error: %v\n", err)
		result.ExitCode = 1
	} else if code, ok := rt.ExitCode(); ok {
		result.ExitCode = code
	}
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result
}

// RunScriptTest executes a script and validates the results
func RunScriptTest(t *testing.T, testCase TestCase) {
	t.Helper()

	result := Run(t, testCase)

	if result.ExitCode != testCase.ExitCode {
		t.Errorf("Expected exit code %d, got %d (stderr: %s)", testCase.ExitCode, result.ExitCode, result.Stderr)
	}

	// Check stdout
	if testCase.Stdout != "" {
		actualStdout := strings.TrimSpace(result.Stdout)
		expectedStdout := strings.TrimSpace(testCase.Stdout)
		if actualStdout != expectedStdout {
			t.Errorf("Stdout mismatch:\nExpected:\n%s\n\nActual:\n%s", expectedStdout, actualStdout)
		}
	}

	// Check stderr
	if testCase.Stderr != "" {
		actualStderr := strings.TrimSpace(result.Stderr)
		expectedStderr := strings.TrimSpace(testCase.Stderr)
		if !strings.Contains(actualStderr, expectedStderr) {
			t.Errorf("Stderr mismatch:\nExpected to contain:\n%s\n\nActual:\n%s", expectedStderr, actualStderr)
		}
	}

	if testing.Verbose() {
		t.Logf("exit=%d\nstdout:\n%s\nstderr:\n%s", result.ExitCode, result.Stdout, result.Stderr)
	}
}

// LoadTestDataFile loads a test file from testdata directory
func LoadTestDataFile(filename string) (string, error) {
	content, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ParseTestCase parses a test case from a structured comment format:
//
//	# TEST: name
//	# EXPECT_EXIT: 1
//	# EXPECT_STDOUT:
//	# line
//	# END_STDOUT
//
// STDIN and EXPECT_STDERR sections work the same way. Every other line is
// script.
func ParseTestCase(content string) TestCase {
	var testCase TestCase
	var scriptLines []string
	var mode string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "# TEST:"):
			testCase.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "# TEST:"))
		case strings.HasPrefix(trimmed, "# EXPECT_EXIT:"):
			fmt.Sscanf(trimmed, "# EXPECT_EXIT: %d", &testCase.ExitCode)
		case strings.HasPrefix(trimmed, "# EXPECT_STDOUT:"):
			mode = "stdout"
		case strings.HasPrefix(trimmed, "# EXPECT_STDERR:"):
			mode = "stderr"
		case strings.HasPrefix(trimmed, "# STDIN:"):
			mode = "stdin"
		case strings.HasPrefix(trimmed, "# END_"):
			mode = ""
		case strings.HasPrefix(trimmed, "#") && mode != "":
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			switch mode {
			case "stdout":
				testCase.Stdout = appendLine(testCase.Stdout, text)
			case "stderr":
				testCase.Stderr = appendLine(testCase.Stderr, text)
			case "stdin":
				testCase.Stdin = appendLine(testCase.Stdin, text)
			}
		default:
			scriptLines = append(scriptLines, line)
		}
	}

	testCase.Script = strings.Join(scriptLines, "\n")
	return testCase
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	return s + "\n" + line
}
