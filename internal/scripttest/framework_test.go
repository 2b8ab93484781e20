package scripttest

import "testing"

func TestParseTestCase(t *testing.T) {
	content := `# TEST: sample
# EXPECT_EXIT: 2
# STDIN:
# input line
# END_STDIN
# EXPECT_STDOUT:
# first
# second
# END_STDOUT
# EXPECT_STDERR:
# oops
# END_STDERR
# a plain comment
println first second
exit 2`

	tc := ParseTestCase(content)

	if tc.Name != "sample" {
		t.Errorf("Name = %q", tc.Name)
	}
	if tc.ExitCode != 2 {
		t.Errorf("ExitCode = %d", tc.ExitCode)
	}
	if tc.Stdin != "input line" {
		t.Errorf("Stdin = %q", tc.Stdin)
	}
	if tc.Stdout != "first\nsecond" {
		t.Errorf("Stdout = %q", tc.Stdout)
	}
	if tc.Stderr != "oops" {
		t.Errorf("Stderr = %q", tc.Stderr)
	}
	if tc.Script != "# a plain comment\nprintln first second\nexit 2" {
		t.Errorf("Script = %q", tc.Script)
	}
}

func TestRunScriptTest(t *testing.T) {
	RunScriptTest(t, TestCase{
		Name:     "exit code and output",
		Script:   "println first second\nexit 2",
		Stdout:   "first\nsecond",
		ExitCode: 2,
	})
}

func TestRunWritesModules(t *testing.T) {
	result := Run(t, TestCase{
		Script:  "def m (require helper); $m.greet",
		Modules: map[string]string{"helper.rt": "export greet { println hi }\n"},
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Stdout != "hi\n" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}
