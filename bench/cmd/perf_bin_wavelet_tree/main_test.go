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

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "english")
	text := strings.Repeat("It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife. ", 30)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestRunBuildsThenLoads(t *testing.T) {
	input := writeInput(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-i", input}, &stdout, &stderr))
	out := stdout.String()
	require.True(t, strings.HasPrefix(out, "Text length: "))
	require.Equal(t, 2, strings.Count(out, "Construction time "))
	require.Contains(t, out, "\nTesting rank consistency... Everything is ok!\n\n")
	require.FileExists(t, input+".wt")
	require.FileExists(t, input+".hwt")

	stdout.Reset()
	require.NoError(t, run([]string{"-i", input}, &stdout, &stderr))
	require.Zero(t, strings.Count(stdout.String(), "Construction time "))
	require.Contains(t, stdout.String(), "The data structure already exists. Filename: "+input+".wt. I'm going to load it ...")
	require.Contains(t, stdout.String(), "The data structure already exists. Filename: "+input+".hwt. I'm going to load it ...")
}

func TestRunQueries(t *testing.T) {
	input := writeInput(t)
	var stdout, stderr bytes.Buffer
	args := []string{"-i", input, "-t", "-r", "-a", "-s", "-p", "-n", "1000", "--runs", "2",
		"--variants", "WT,QWT256", "--cache-compression", "lz4", "--space-report"}
	require.NoError(t, run(args, &stdout, &stderr))

	out := stdout.String()
	require.Contains(t, out, "Access of HWT is ok!")
	require.Contains(t, out, "Access of QWT256 is ok!")
	require.Contains(t, out, "- QWT256: ")
	require.FileExists(t, input+".qwt256")

	var results []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "RESULT ") {
			results = append(results, line)
		}
	}
	require.Len(t, results, 3+4, "WT has no prefetch experiment")
	require.True(t, strings.HasPrefix(results[0], "RESULT algo=WT exp=access_latency input="+input+" "))
	require.True(t, strings.HasPrefix(results[3], "RESULT algo=QWT256 exp=access_latency "))
	require.True(t, strings.HasPrefix(results[6], "RESULT algo=QWT256 exp=rank_prefetch_latency "))
}

func TestRunPrefixUsesOwnCache(t *testing.T) {
	input := writeInput(t)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-i", input, "--prefix-size", "100"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "Text length: 100\n")
	require.FileExists(t, input+".100.wt")
	require.NoFileExists(t, input+".wt")
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.ErrorIs(t, run(nil, &stdout, &stderr), errutil.ErrArgument)
	require.ErrorIs(t, run([]string{"--bogus"}, &stdout, &stderr), errutil.ErrArgument)
	require.ErrorIs(t, run([]string{"-i", "x", "--variants", "RRR"}, &stdout, &stderr), errutil.ErrArgument)
	require.ErrorIs(t, run([]string{"-i", filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr), errutil.ErrIO)

	input := writeInput(t)
	require.NoError(t, os.WriteFile(input+".hwt", []byte("stale"), 0o644))
	require.ErrorIs(t, run([]string{"-i", input}, &stdout, &stderr), errutil.ErrDeserialization)
}
