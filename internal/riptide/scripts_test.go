package riptide_test

import (
	"path/filepath"
	"testing"

	"riptide/internal/scripttest"
)

func TestScriptFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.rt"))
	if err != nil {
		t.Fatalf("Failed to list testdata: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("no scripts found in testdata")
	}

	for _, path := range paths {
		content, err := scripttest.LoadTestDataFile(filepath.Base(path))
		if err != nil {
			t.Fatalf("Failed to load %s: %v", path, err)
		}

		testCase := scripttest.ParseTestCase(content)
		if testCase.Name == "" {
			testCase.Name = filepath.Base(path)
		}
		t.Run(testCase.Name, func(t *testing.T) {
			scripttest.RunScriptTest(t, testCase)
		})
	}
}
