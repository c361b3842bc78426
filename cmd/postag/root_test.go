package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resourceFlags(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"weights.json": `{"bias": {"NN": 1.0}, "i-1 tag NN": {"VB": 3.0}}`,
		"classes.txt":  "NN\nVB\n",
		"tags.json":    `{"the": "DT"}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return []string{
		"--weights", filepath.Join(dir, "weights.json"),
		"--classes", filepath.Join(dir, "classes.txt"),
		"--exceptions", filepath.Join(dir, "tags.json"),
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestTagArguments(t *testing.T) {
	out, err := run(t, "", append(resourceFlags(t), "the dog")...)
	require.NoError(t, err)
	assert.Equal(t, "the DT 1.0000\ndog NN 1.0000\n", out)
}

func TestTagStdinLines(t *testing.T) {
	out, err := run(t, "dog\n\n  \nthe\n", resourceFlags(t)...)
	require.NoError(t, err)
	assert.Equal(t, "dog NN 1.0000\nthe DT 1.0000\n", out)
}

func TestTagTable(t *testing.T) {
	out, err := run(t, "", append(resourceFlags(t), "--table", "the dog")...)
	require.NoError(t, err)
	for _, cell := range []string{"WORD", "TAG", "CONF", "the", "DT", "dog", "NN", "1.0000"} {
		assert.Contains(t, out, cell)
	}
}

func TestMissingResources(t *testing.T) {
	_, err := run(t, "", "--weights", "w.json", "the dog")
	assert.Error(t, err)

	flags := resourceFlags(t)
	flags[1] = filepath.Join(t.TempDir(), "missing.json")
	_, err = run(t, "", append(flags, "the dog")...)
	assert.Error(t, err)
}
