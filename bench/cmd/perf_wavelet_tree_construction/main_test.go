package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AngeloSav/qwt-experiments/errutil"
)

func TestRun(t *testing.T) {
	input := filepath.Join(t.TempDir(), "dna")
	require.NoError(t, os.WriteFile(input, []byte(strings.Repeat("ACGTTGCAACGT", 50)), 0o644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-i", input, "--runs", "2", "--variants", "WT,Plain"}, &stdout, &stderr))
	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	require.Equal(t, []string{"Text length: 600", "Alphabet size: 4"}, lines[:2])
	require.Len(t, lines, 2+2*2)
	require.True(t, strings.HasPrefix(lines[2], "RESULT algo=WT input="+input+" n=600 logn=9 "))
	require.True(t, strings.HasSuffix(lines[2], " n_runs=2"))
	require.True(t, strings.HasPrefix(lines[4], "RESULT algo=Plain "))
	// Position 123 is 'T', remapped to 3, read once per run.
	require.Equal(t, "Result: 6", lines[3])
}

func TestRunNoRemap(t *testing.T) {
	input := filepath.Join(t.TempDir(), "dna")
	require.NoError(t, os.WriteFile(input, []byte(strings.Repeat("ACGTTGCAACGT", 50)), 0o644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-i", input, "--runs", "1", "--variants", "HWT", "--no-remap"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "Alphabet size: 4\n")
	require.Contains(t, stdout.String(), "Result: 84\n")
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.ErrorIs(t, run(nil, &stdout, &stderr), errutil.ErrArgument)
	require.ErrorIs(t, run([]string{"-i", "x", "--variants", "nope"}, &stdout, &stderr), errutil.ErrArgument)
	require.ErrorIs(t, run([]string{"-i", filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr), errutil.ErrIO)
}
