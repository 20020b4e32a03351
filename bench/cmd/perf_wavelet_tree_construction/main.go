// perf_wavelet_tree_construction times the construction of every
// registered variant over one input and prints one RESULT line each.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/AngeloSav/qwt-experiments/bench"
	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/sequence"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		errutil.Exit(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cfg bench.ConstructionConfig
	fs := pflag.NewFlagSet("perf_wavelet_tree_construction", pflag.ContinueOnError)
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
	entries, err := bench.Filter(bench.DefaultRegistry(), cfg.Variants)
	if err != nil {
		return err
	}

	text, err := sequence.Load(cfg.InputFile, cfg.PrefixSize)
	if err != nil {
		return err
	}
	var sigma int
	if cfg.NoRemap {
		sigma = sequence.Stats(text).Sigma
	} else {
		sigma = sequence.Remap(text)
	}
	fmt.Fprintf(stdout, "Text length: %d\n", len(text))
	fmt.Fprintf(stdout, "Alphabet size: %d\n", sigma)

	results := bench.RunConstruction(entries, text, cfg.InputFile, cfg.Runs, stdout)
	log.Info("construction finished", "variants", len(results), "runs", cfg.Runs)
	return nil
}
