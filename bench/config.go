package bench

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/AngeloSav/qwt-experiments/cache"
	"github.com/AngeloSav/qwt-experiments/errutil"
)

const (
	DefaultQueries = 10_000_000
	DefaultRuns    = 10
)

// Common holds the flags shared by every benchmark binary.
type Common struct {
	InputFile  string
	Runs       int
	PrefixSize int
	LogLevel   string
	Variants   []string
}

func (c *Common) AddFlags(fs *pflag.FlagSet, variants []string) {
	fs.StringVarP(&c.InputFile, "input-file", "i", "", "input filename (required)")
	fs.IntVar(&c.Runs, "runs", DefaultRuns, "measured repetitions per experiment")
	fs.IntVar(&c.PrefixSize, "prefix-size", 0, "use only the first N bytes of the input (0 = all)")
	fs.StringVar(&c.LogLevel, "log-level", "warn", "diagnostic log level on stderr (debug, info, warn, error)")
	fs.StringSliceVar(&c.Variants, "variants", variants, "variants to benchmark")
}

func (c *Common) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("%w: --input-file is required", errutil.ErrArgument)
	}
	if c.Runs < 1 {
		return fmt.Errorf("%w: --runs must be at least 1, got %d", errutil.ErrArgument, c.Runs)
	}
	if c.PrefixSize < 0 {
		return fmt.Errorf("%w: --prefix-size must not be negative, got %d", errutil.ErrArgument, c.PrefixSize)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger returns a text logger on w at the configured level.
func (c *Common) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return NewLogger(w, level), nil
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("%w: --log-level: %v", errutil.ErrArgument, err)
	}
	return level, nil
}

// QueryConfig configures the single-input comparison binary.
type QueryConfig struct {
	Common
	NQueries         int
	TestCorrectness  bool
	Rank             bool
	Access           bool
	Select           bool
	RankPrefetch     bool
	Seed             int64
	CacheCompression string
	Progress         bool
	SpaceReport      bool
}

func (c *QueryConfig) AddFlags(fs *pflag.FlagSet) {
	c.Common.AddFlags(fs, []string{"WT", "HWT"})
	fs.IntVarP(&c.NQueries, "n-queries", "n", DefaultQueries, "number of queries per experiment")
	fs.BoolVarP(&c.TestCorrectness, "test-correctness", "t", false, "also check access against the input")
	fs.BoolVarP(&c.Rank, "rank", "r", false, "run rank latency queries")
	fs.BoolVarP(&c.Access, "access", "a", false, "run access latency queries")
	fs.BoolVarP(&c.Select, "select", "s", false, "run select latency queries")
	fs.BoolVarP(&c.RankPrefetch, "rank-prefetch", "p", false, "run rank latency queries with prefetching")
	fs.Int64Var(&c.Seed, "seed", 42, "query generator seed")
	fs.StringVar(&c.CacheCompression, "cache-compression", "none", "compression of new cache files (none, lz4, zstd)")
	fs.BoolVar(&c.Progress, "progress", false, "show progress bars on stderr")
	fs.BoolVar(&c.SpaceReport, "space-report", false, "print a space breakdown of every artifact")
}

func (c *QueryConfig) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	if c.NQueries < 1 {
		return fmt.Errorf("%w: --n-queries must be at least 1, got %d", errutil.ErrArgument, c.NQueries)
	}
	if len(c.Variants) == 0 {
		return fmt.Errorf("%w: --variants must name at least one variant", errutil.ErrArgument)
	}
	if _, err := c.Compression(); err != nil {
		return err
	}
	return nil
}

func (c *QueryConfig) Compression() (cache.Compression, error) {
	comp, err := cache.ParseCompression(c.CacheCompression)
	if err != nil {
		return 0, fmt.Errorf("%w: --cache-compression: %v", errutil.ErrArgument, err)
	}
	return comp, nil
}

// Experiments returns the enabled query experiments in report order.
func (c *QueryConfig) Experiments() []Experiment {
	var exps []Experiment
	for _, e := range []struct {
		on  bool
		exp Experiment
	}{
		{c.Access, ExpAccess},
		{c.Rank, ExpRank},
		{c.Select, ExpSelect},
		{c.RankPrefetch, ExpRankPrefetch},
	} {
		if e.on {
			exps = append(exps, e.exp)
		}
	}
	return exps
}

// ConstructionConfig configures the multi-variant construction binary.
type ConstructionConfig struct {
	Common
	NoRemap bool
}

func (c *ConstructionConfig) AddFlags(fs *pflag.FlagSet) {
	c.Common.AddFlags(fs, nil)
	fs.BoolVar(&c.NoRemap, "no-remap", false, "keep the raw byte alphabet")
}
