// perf_bin_wavelet_tree builds (or loads from the cache) a wavelet matrix
// and a Huffman-shaped wavelet tree over one input, checks that they agree
// on every rank query, and optionally times access, rank and select
// queries over every requested variant.
//
// Usage:
//
//	perf_bin_wavelet_tree -i english.200MB -r -a -s -n 1000000
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/exp/slices"

	"github.com/AngeloSav/qwt-experiments/bench"
	"github.com/AngeloSav/qwt-experiments/cache"
	"github.com/AngeloSav/qwt-experiments/check"
	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/sequence"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

// reference variants are always built and cross-checked.
var reference = []string{wavelet.VariantWT.ID, wavelet.VariantHWT.ID}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		errutil.Exit(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cfg bench.QueryConfig
	fs := pflag.NewFlagSet("perf_bin_wavelet_tree", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errutil.ErrArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}
	compression, err := cfg.Compression()
	if err != nil {
		return err
	}
	variants, err := lookupAll(union(reference, cfg.Variants))
	if err != nil {
		return err
	}

	text, err := sequence.Load(cfg.InputFile, cfg.PrefixSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Text length: %d\n", len(text))

	// A prefix is a different input and gets its own cache files.
	base := cfg.InputFile
	if cfg.PrefixSize > 0 {
		base = fmt.Sprintf("%s.%d", base, cfg.PrefixSize)
	}
	opts := cache.Options{Out: stdout, Logger: log, Compression: compression}
	artifacts := make([]wavelet.Artifact, len(variants))
	for i, v := range variants {
		if artifacts[i], err = cache.LoadOrBuildAndSave(cache.Path(base, v), text, v, opts); err != nil {
			return err
		}
	}

	var checkOpts check.Options
	if cfg.Progress {
		checkOpts.Progress = stderr
	}
	fmt.Fprint(stdout, "\nTesting rank consistency... ")
	for i := 1; i < len(artifacts); i++ {
		if err := check.Rank(artifacts[0], artifacts[i], text, checkOpts); err != nil {
			return fmt.Errorf("%s vs %s: %w", variants[0].ID, variants[i].ID, err)
		}
	}
	fmt.Fprint(stdout, "Everything is ok!\n\n")

	if cfg.TestCorrectness {
		for i, a := range artifacts {
			if err := check.Access(a, text, checkOpts); err != nil {
				return fmt.Errorf("%s: %w", variants[i].ID, err)
			}
			fmt.Fprintf(stdout, "Access of %s is ok!\n", variants[i].ID)
		}
	}

	if cfg.SpaceReport {
		for _, a := range artifacts {
			fmt.Fprint(stdout, a.MemDetailed())
		}
	}

	exps := cfg.Experiments()
	if len(exps) == 0 {
		return nil
	}
	queries := bench.GenerateQueries(text, cfg.NQueries, cfg.Seed)
	log.Info("queries generated", "count", cfg.NQueries, "seed", cfg.Seed)
	qopts := bench.QueryOptions{Input: cfg.InputFile, Runs: cfg.Runs, Experiments: exps, Out: stdout, Logger: log}
	for i, v := range variants {
		if !slices.Contains(cfg.Variants, v.ID) {
			continue
		}
		if _, err := bench.RunQueries(artifacts[i], v.ID, queries, qopts); err != nil {
			return err
		}
	}
	return nil
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func lookupAll(ids []string) ([]wavelet.Variant, error) {
	out := make([]wavelet.Variant, 0, len(ids))
	for _, id := range ids {
		v, ok := wavelet.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: unknown variant %q", errutil.ErrArgument, id)
		}
		out = append(out, v)
	}
	return out, nil
}
