package bench

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/timing"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

func text() []uint8 {
	return []uint8(strings.Repeat("to be or not to be, that is the question. ", 40))
}

// stepClock advances by step on every reading.
func stepClock(step time.Duration) timing.Clock {
	var now time.Duration
	return func() time.Duration {
		now += step
		return now
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	var ids []string
	for _, e := range DefaultRegistry() {
		ids = append(ids, e.ID)
	}
	var want []string
	for _, v := range wavelet.Variants() {
		want = append(want, v.ID)
	}
	require.Equal(t, want, ids)
}

func TestFilter(t *testing.T) {
	all := DefaultRegistry()
	got, err := Filter(all, nil)
	require.NoError(t, err)
	require.Len(t, got, len(all))

	got, err = Filter(all, []string{"HWT", "WT"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "WT", got[0].ID, "registry order wins over argument order")
	require.Equal(t, "HWT", got[1].ID)

	_, err = Filter(all, []string{"WT", "RRR"})
	require.ErrorIs(t, err, errutil.ErrArgument)
}

func TestSink(t *testing.T) {
	var s Sink
	s.Consume(3)
	s.Consume(4)
	require.Equal(t, uint64(7), s.Value())
}

func TestConstructOne(t *testing.T) {
	seq := text()
	builds := 0
	e := Entry{ID: "WT", Build: func(seq []uint8) wavelet.Artifact {
		builds++
		return wavelet.NewWT(seq)
	}}
	r := constructOne(e, seq, timing.NewWithClock(3, 0, stepClock(5*time.Millisecond)))
	require.Equal(t, 3, builds)
	require.Equal(t, 5*time.Millisecond, r.Min)
	require.Equal(t, 5*time.Millisecond, r.Max)
	require.Equal(t, 5*time.Millisecond, r.Avg)
	require.Equal(t, 3, r.Runs)
	require.Equal(t, uint64(3*int(seq[sinkPosition])), r.Sink)

	r.Input = "hamlet.txt"
	require.Equal(t, fmt.Sprintf("RESULT algo=WT input=hamlet.txt n=%d logn=10 min_construction_time_ms=5 max_construction_time_ms=5 avg_construction_time_ms=5 n_runs=3", len(seq)), r.String())
}

func TestConstructOneShortSequence(t *testing.T) {
	seq := []uint8{9, 8, 7}
	r := constructOne(Entry{ID: "Plain", Build: wavelet.VariantPlain.Build}, seq, timing.NewWithClock(2, 0, stepClock(time.Millisecond)))
	require.Equal(t, uint64(2*7), r.Sink, "sink reads the last element of short sequences")

	r = constructOne(Entry{ID: "Plain", Build: wavelet.VariantPlain.Build}, nil, timing.NewWithClock(1, 0, stepClock(time.Millisecond)))
	require.Zero(t, r.Sink)
	require.Equal(t, -1, r.LogN)
}

func TestRunConstruction(t *testing.T) {
	seq := text()
	var out bytes.Buffer
	entries, err := Filter(DefaultRegistry(), []string{"QWT256", "WT", "HWT"})
	require.NoError(t, err)

	results := RunConstruction(entries, seq, "in.txt", 2, &out)
	require.Len(t, results, 3)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	for i, id := range []string{"QWT256", "WT", "HWT"} {
		require.True(t, strings.HasPrefix(lines[2*i], "RESULT algo="+id+" input=in.txt n="+fmt.Sprint(len(seq))+" logn=10 "), lines[2*i])
		require.True(t, strings.HasSuffix(lines[2*i], " n_runs=2"))
		require.Equal(t, fmt.Sprintf("Result: %d", 2*int(seq[sinkPosition])), lines[2*i+1])
		require.LessOrEqual(t, results[i].Min, results[i].Avg)
		require.LessOrEqual(t, results[i].Avg, results[i].Max)
	}
}

func TestGenerateQueries(t *testing.T) {
	seq := text()
	q := GenerateQueries(seq, 1000, 7)
	require.Len(t, q.Access, 1000)
	require.Len(t, q.Rank, 1000)
	require.Len(t, q.Select, 1000)
	require.Equal(t, q, GenerateQueries(seq, 1000, 7), "queries depend only on the seed")

	occ := func(s uint8) int { return bytes.Count(seq, []byte{s}) }
	for i := range q.Access {
		require.GreaterOrEqual(t, q.Access[i], 0)
		require.Less(t, q.Access[i], len(seq))
		require.LessOrEqual(t, q.Rank[i].Pos, len(seq))
		require.Positive(t, occ(q.Rank[i].Symbol))
		require.GreaterOrEqual(t, q.Select[i].K, 1)
		require.LessOrEqual(t, q.Select[i].K, occ(q.Select[i].Symbol))
	}

	require.Empty(t, GenerateQueries(nil, 10, 1).Access)
	require.Empty(t, GenerateQueries(seq, 0, 1).Rank)
}

func TestChainsAgreeAcrossVariants(t *testing.T) {
	seq := text()
	q := GenerateQueries(seq, 500, 3)
	ref := wavelet.NewPlain(seq)
	for _, exp := range []Experiment{ExpAccess, ExpRank, ExpSelect} {
		want, count := chainFor(ref, exp, q)
		require.Equal(t, 500, count)
		expected := want()
		for _, v := range wavelet.Variants() {
			got, _ := chainFor(v.Build(seq), exp, q)
			require.Equal(t, expected, got(), "%s/%s", v.ID, exp)
		}
	}
}

func TestRankPrefetchMatchesRank(t *testing.T) {
	seq := text()
	q := GenerateQueries(seq, 500, 11)
	a := wavelet.NewQWT(seq, 256)
	rank, _ := chainFor(a, ExpRank, q)
	prefetch, n := chainFor(a, ExpRankPrefetch, q)
	require.NotNil(t, prefetch)
	require.Equal(t, 500, n)
	require.Equal(t, rank(), prefetch())

	missing, _ := chainFor(wavelet.NewWT(seq), ExpRankPrefetch, q)
	require.Nil(t, missing)
}

func TestRunQueries(t *testing.T) {
	seq := text()
	q := GenerateQueries(seq, 200, 5)
	var out bytes.Buffer
	opts := QueryOptions{
		Input:       "in.txt",
		Runs:        2,
		Experiments: []Experiment{ExpAccess, ExpRank, ExpSelect, ExpRankPrefetch},
		Out:         &out,
		Logger:      NewLogger(io.Discard, 0),
	}

	results, err := RunQueries(wavelet.NewWT(seq), "WT", q, opts)
	require.NoError(t, err)
	require.Len(t, results, 3, "WT cannot prefetch")
	var exps []Experiment
	for _, r := range results {
		exps = append(exps, r.Exp)
		require.Equal(t, 200, r.Queries)
		require.Equal(t, 2, r.Runs)
		require.Positive(t, r.SpaceBytes)
	}
	require.Equal(t, []Experiment{ExpAccess, ExpRank, ExpSelect}, exps)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "RESULT algo=WT exp=rank_latency input=in.txt n="))
	require.True(t, strings.HasSuffix(lines[1], " n_queries=200 n_runs=2"))

	results, err = RunQueries(wavelet.NewQWT(seq, 512), "QWT512", q, opts)
	require.NoError(t, err)
	require.GreaterOrEqual(t, slices.IndexFunc(results, func(r QueryResult) bool { return r.Exp == ExpRankPrefetch }), 0)
}

func TestRunQueriesRejectsEmpty(t *testing.T) {
	_, err := RunQueries(wavelet.NewWT(nil), "WT", Queries{}, QueryOptions{Runs: 1, Experiments: []Experiment{ExpRank}})
	require.ErrorIs(t, err, errutil.ErrArgument)

	_, err = RunQueries(wavelet.NewWT(text()), "WT", Queries{}, QueryOptions{Runs: 1, Experiments: []Experiment{ExpRank}, Logger: NewLogger(io.Discard, 0)})
	require.ErrorIs(t, err, errutil.ErrArgument)
}

func TestQueryResultString(t *testing.T) {
	r := QueryResult{
		Algo: "HWT", Exp: ExpSelect, Input: "dna", N: 1 << 20, LogN: 20,
		Min: 1000 * time.Nanosecond, Max: 3000 * time.Nanosecond, Avg: 2000 * time.Nanosecond,
		SpaceBytes: 3 << 19, Queries: 10, Runs: 4,
	}
	require.Equal(t, "RESULT algo=HWT exp=select_latency input=dna n=1048576 logn=20 min_time_ns=100 max_time_ns=300 avg_time_ns=200 space_in_bytes=1572864 space_in_mib=1.50 n_queries=10 n_runs=4", r.String())
}

func parseQueryFlags(t *testing.T, args ...string) *QueryConfig {
	t.Helper()
	var c QueryConfig
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &c
}

func TestQueryConfig(t *testing.T) {
	c := parseQueryFlags(t, "-i", "english", "-r", "-a", "-p", "--runs", "3")
	require.NoError(t, c.Validate())
	require.Equal(t, "english", c.InputFile)
	require.Equal(t, DefaultQueries, c.NQueries)
	require.Equal(t, 3, c.Runs)
	require.Equal(t, []string{"WT", "HWT"}, c.Variants)
	require.Equal(t, []Experiment{ExpAccess, ExpRank, ExpRankPrefetch}, c.Experiments())

	c = parseQueryFlags(t, "--input-file=english", "--n-queries=5", "--select", "--variants=QWT256,WT", "--cache-compression=zstd")
	require.NoError(t, c.Validate())
	require.Equal(t, 5, c.NQueries)
	require.Equal(t, []string{"QWT256", "WT"}, c.Variants)
	require.Equal(t, []Experiment{ExpSelect}, c.Experiments())
	comp, err := c.Compression()
	require.NoError(t, err)
	require.Equal(t, "zstd", comp.String())
}

func TestQueryConfigValidate(t *testing.T) {
	for name, args := range map[string][]string{
		"missing input":   {"-r"},
		"zero queries":    {"-i", "x", "-n", "0"},
		"zero runs":       {"-i", "x", "--runs", "0"},
		"bad compression": {"-i", "x", "--cache-compression", "brotli"},
		"bad log level":   {"-i", "x", "--log-level", "loud"},
		"negative prefix": {"-i", "x", "--prefix-size", "-1"},
	} {
		require.ErrorIs(t, parseQueryFlags(t, args...).Validate(), errutil.ErrArgument, name)
	}
}

func TestConstructionConfig(t *testing.T) {
	var c ConstructionConfig
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"-i", "english", "--no-remap", "--log-level", "debug"}))
	require.NoError(t, c.Validate())
	require.True(t, c.NoRemap)
	require.Equal(t, DefaultRuns, c.Runs)
	require.Empty(t, c.Variants)

	logger, err := c.Logger(io.Discard)
	require.NoError(t, err)
	require.NotNil(t, logger)
}
