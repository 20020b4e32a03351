package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AngeloSav/qwt-experiments/errutil"
)

func TestRun(t *testing.T) {
	input := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(input, []byte("abracadabra"), 0o644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-i", input}, &stdout, &stderr))
	require.Equal(t, "RESULT algo=text_statistics input="+input+" n=11 logn=3 reduced_alphabet_size=5\n", stdout.String())

	stdout.Reset()
	require.NoError(t, run([]string{"-i", input, "-n", "4"}, &stdout, &stderr))
	require.Equal(t, "RESULT algo=text_statistics input="+input+" n=4 logn=2 reduced_alphabet_size=3\n", stdout.String())
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.ErrorIs(t, run(nil, &stdout, &stderr), errutil.ErrArgument)
	require.ErrorIs(t, run([]string{"-i", filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr), errutil.ErrIO)
}
