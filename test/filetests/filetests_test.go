// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filetests

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimTrailingMultilineWhitespace(t *testing.T) {
	for _, testcase := range []struct {
		give, want string
	}{
		{
			give: `we want yaml`,
			want: `we want yaml`,
		},
		{
			give: `we want yaml `,
			want: `we want yaml`,
		},
		{
			give: `we want yaml	`,
			want: `we want yaml`,
		},
		{
			give: `we want yaml
`,
			want: `we want yaml`,
		},
		{
			give: `
we 
want	
yaml  `,
			want: `
we
want
yaml`,
		},
		{
			give: `
we

  want	
	yaml

`,
			want: `
we

  want
	yaml`,
		},
	} {
		assert.Equal(t, testcase.want, TrimTrailingMultilineWhitespace(testcase.give))
	}
}

func TestRunWithDefaultEval(t *testing.T) {
	dir := t.TempDir()
	writeFiletest(t, dir, "loop.tpltest", "(@ for i in range(count): @)(@= i @)(@ end @)\n+++\n012\n")
	writeFiletest(t, dir, "err.tpltest", "(@= missing @)\n+++\nERR:\nundefined: missing\n")

	FileTests{PathToTests: dir, Model: map[string]interface{}{"count": 3}}.Run(t)
}

func TestRunWithCustomEval(t *testing.T) {
	dir := t.TempDir()
	writeFiletest(t, dir, "upper.tpltest", "hello\n+++\nHELLO\n")

	var seen []string
	FileTests{
		PathToTests: dir,
		EvalFunc: func(name, src string) (string, error) {
			seen = append(seen, name)
			return strings.ToUpper(src), nil
		},
	}.Run(t)

	assert.Equal(t, []string{"upper.tpltest"}, seen)
}

func TestExpectEqualsIncludesDiff(t *testing.T) {
	assert.NoError(t, ExpectEquals("a\nb", "a\nb"))

	err := ExpectEquals("a\nc", "a\nb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "### diff:")
}

func TestExpectContains(t *testing.T) {
	assert.NoError(t, ExpectContains("line one\nline two", "one\ntwo  \n"))
	assert.Error(t, ExpectContains("line one", "one\nthree"))
}

func writeFiletest(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0600))
}
