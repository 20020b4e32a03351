// text_statistics prints the length and effective alphabet size of an
// input as a RESULT line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/sequence"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		errutil.Exit(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		input  string
		prefix int
	)
	fs := pflag.NewFlagSet("text_statistics", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&input, "input-file", "i", "", "input filename (required)")
	fs.IntVarP(&prefix, "prefix-size", "n", 0, "use only the first N bytes of the input (0 = all)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errutil.ErrArgument, err)
	}
	if input == "" {
		return fmt.Errorf("%w: --input-file is required", errutil.ErrArgument)
	}

	text, err := sequence.Load(input, prefix)
	if err != nil {
		return err
	}
	st := sequence.Stats(text)
	fmt.Fprintf(stdout, "RESULT algo=text_statistics input=%s n=%d logn=%d reduced_alphabet_size=%d\n",
		input, st.N, st.LogN, st.Sigma)
	return nil
}
