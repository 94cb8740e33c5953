// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filetests houses a test harness for evaluating templates and asserting
the expected output.
*/
package filetests

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/texttemplate"
	"github.com/k14s/difflib"
)

const (
	testSep   = "\n+++\n"
	errPrefix = "ERR:\n"
)

// EvaluateTemplate is the processing desired from a source template to the final result.
type EvaluateTemplate func(name, src string) (string, error)

// FileTests contain a suite of test cases, each described in a separate file, verifying the behavior of templates.
//
// Test cases:
// - are found within the directory at "PathToTests"
// - conventionally have a .tpltest extension
// - top-half is the template; bottom-half is the expected output; divided by a `+++` line.
// - the final newline of the file is not part of the expected output
//
// Expected output starting with an `ERR:` line lists text the error message must contain (one per line).
//
// For example:
//
//	(@ for i in range(2): @)(@= i @)(@ end @)
//	+++
//	01
type FileTests struct {
	PathToTests      string
	EvalFunc         EvaluateTemplate
	ShowTemplateCode bool
	// Model is made available to the default evaluation as template globals.
	Model map[string]interface{}
	// Only restricts the run to files with this prefix.
	Only string
}

// Run runs each test: enumerates each file within FileTests.PathToTests, splits it and evaluates
// the top-half using FileTests.EvalFunc.
func (f FileTests) Run(t *testing.T) {
	var files []string

	err := filepath.Walk(f.PathToTests, func(walkedPath string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}
		if len(f.Only) > 0 && !strings.HasPrefix(fi.Name(), f.Only) {
			return nil
		}
		files = append(files, walkedPath)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to enumerate filetests: %s", err)
	}
	if len(files) == 0 {
		t.Fatalf("Expected to find filetests in '%s'", f.PathToTests)
	}

	if f.EvalFunc == nil {
		f.EvalFunc = f.DefaultEvalTemplate
	}

	for _, filePath := range files {
		t.Run(filepath.Base(filePath), func(t *testing.T) {
			contents, err := os.ReadFile(filePath)
			if err != nil {
				t.Fatal(err)
			}

			pieces := strings.SplitN(string(contents), testSep, 2)
			if len(pieces) != 2 {
				t.Fatalf("expected file %s to include +++ separator", filePath)
			}

			result, testErr := f.EvalFunc(filepath.Base(filePath), pieces[0])
			expectedStr := strings.TrimSuffix(pieces[1], "\n")

			if strings.HasPrefix(expectedStr, errPrefix) {
				if testErr == nil {
					err = fmt.Errorf("expected eval error, but did not receive it (output: >>>%s<<<)", result)
				} else {
					err = ExpectContains(testErr.Error(), strings.TrimPrefix(expectedStr, errPrefix))
				}
			} else {
				if testErr == nil {
					err = ExpectEquals(result, expectedStr)
				} else {
					err = fmt.Errorf("eval error: %s", testErr)
				}
			}

			if err != nil {
				t.Fatalf("%s", err)
			}
		})
	}
}

// DefaultEvalTemplate parses "src" as a text template and renders it with FileTests.Model.
func (f FileTests) DefaultEvalTemplate(name, src string) (string, error) {
	compiledTemplate := texttemplate.NewParser().Parse(src, name, template.ParseOpts{})

	if f.ShowTemplateCode {
		if prog, ok := compiledTemplate.Root().(*texttemplate.Program); ok {
			fmt.Printf("### template:\n%s\n", prog.DebugCodeAsString())
		}
	}

	return compiledTemplate.RenderWithModel(f.Model)
}

// ExpectEquals returns an error describing the difference between result and expected.
func ExpectEquals(resultStr, expectedStr string) error {
	if resultStr != expectedStr {
		diff := difflib.PPDiff(strings.Split(expectedStr, "\n"), strings.Split(resultStr, "\n"))
		return fmt.Errorf("not equal\n\n### result %d chars:\n>>>%s<<<\n###expected %d chars:\n>>>%s<<<\n### diff:\n%s",
			len(resultStr), resultStr, len(expectedStr), expectedStr, diff)
	}
	return nil
}

// ExpectContains checks that every line of expectedStr appears in errStr.
func ExpectContains(errStr, expectedStr string) error {
	for _, line := range strings.Split(TrimTrailingMultilineWhitespace(expectedStr), "\n") {
		if !strings.Contains(errStr, line) {
			return fmt.Errorf("expected error to contain\n>>>%s<<<\nbut was\n>>>%s<<<", line, errStr)
		}
	}
	return nil
}

// TrimTrailingMultilineWhitespace returns a string with trailing whitespace trimmed from every line as well
// as trimmed trailing empty lines
func TrimTrailingMultilineWhitespace(s string) string {
	var trimmedLines []string
	for _, line := range strings.Split(s, "\n") {
		trimmedLines = append(trimmedLines, strings.TrimRight(line, "\t "))
	}
	return strings.TrimRight(strings.Join(trimmedLines, "\n"), "\n")
}
