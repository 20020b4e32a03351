package bench

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/sequence"
	"github.com/AngeloSav/qwt-experiments/timing"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

type Experiment string

const (
	ExpAccess       Experiment = "access"
	ExpRank         Experiment = "rank"
	ExpSelect       Experiment = "select"
	ExpRankPrefetch Experiment = "rank_prefetch"
)

type RankQuery struct {
	Pos    int
	Symbol uint8
}

// SelectQuery asks for the K-th (1-based) occurrence of Symbol.
type SelectQuery struct {
	K      int
	Symbol uint8
}

type Queries struct {
	Access []int
	Rank   []RankQuery
	Select []SelectQuery
}

// GenerateQueries draws count queries of every kind from seq. Rank and
// select symbols are sampled from seq, so frequent symbols are queried
// more often, and select ranks never exceed the symbol's frequency.
func GenerateQueries(seq []uint8, count int, seed int64) Queries {
	var q Queries
	n := len(seq)
	if n == 0 || count <= 0 {
		return q
	}
	var hist [256]int
	for _, s := range seq {
		hist[s]++
	}
	r := rand.New(rand.NewSource(seed))
	q.Access = make([]int, count)
	q.Rank = make([]RankQuery, count)
	q.Select = make([]SelectQuery, count)
	for i := 0; i < count; i++ {
		q.Access[i] = r.Intn(n)
		q.Rank[i] = RankQuery{Pos: r.Intn(n + 1), Symbol: seq[r.Intn(n)]}
		s := seq[r.Intn(n)]
		q.Select[i] = SelectQuery{K: 1 + r.Intn(hist[s]), Symbol: s}
	}
	return q
}

type QueryResult struct {
	Algo       string
	Exp        Experiment
	Input      string
	N          int
	LogN       int
	Min        time.Duration
	Max        time.Duration
	Avg        time.Duration
	SpaceBytes int
	Queries    int
	Runs       int
}

// perQuery divides a whole-run duration by the number of queries.
func (r QueryResult) perQuery(d time.Duration) int64 {
	return d.Nanoseconds() / int64(r.Queries)
}

func (r QueryResult) String() string {
	return fmt.Sprintf("RESULT algo=%s exp=%s_latency input=%s n=%d logn=%d min_time_ns=%d max_time_ns=%d avg_time_ns=%d space_in_bytes=%d space_in_mib=%.2f n_queries=%d n_runs=%d",
		r.Algo, r.Exp, r.Input, r.N, r.LogN, r.perQuery(r.Min), r.perQuery(r.Max), r.perQuery(r.Avg),
		r.SpaceBytes, float64(r.SpaceBytes)/1024/1024, r.Queries, r.Runs)
}

type QueryOptions struct {
	Input       string
	Runs        int
	Experiments []Experiment
	Out         io.Writer
	Logger      *slog.Logger
}

// RunQueries times each experiment over a with a dependency chain between
// consecutive queries, so it measures latency rather than throughput.
func RunQueries(a wavelet.Artifact, algo string, q Queries, opts QueryOptions) ([]QueryResult, error) {
	n := a.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: cannot query an empty sequence", errutil.ErrArgument)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var sink Sink
	var results []QueryResult
	for _, exp := range opts.Experiments {
		run, count := chainFor(a, exp, q)
		if run == nil {
			log.Warn("experiment not supported, skipping", "algo", algo, "exp", exp)
			continue
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: no %s queries", errutil.ErrArgument, exp)
		}
		t := timing.New(opts.Runs, 0)
		for !t.Done() {
			var last uint64
			t.Measure(func() { last = run() })
			sink.Consume(last)
			log.Debug("run finished", "algo", algo, "exp", exp, "result", last)
		}
		minD, maxD, avgD := t.Get()
		r := QueryResult{
			Algo: algo, Exp: exp, Input: opts.Input,
			N: n, LogN: sequence.LogN(n),
			Min: minD, Max: maxD, Avg: avgD,
			SpaceBytes: a.SpaceUsage(), Queries: count, Runs: opts.Runs,
		}
		if opts.Out != nil {
			fmt.Fprintln(opts.Out, r)
		}
		results = append(results, r)
	}
	log.Debug("queries finished", "algo", algo, "sink", sink.Value())
	return results, nil
}

// chainFor returns one full pass of exp over q and the number of queries
// in it, or nil when a cannot run exp.
func chainFor(a wavelet.Artifact, exp Experiment, q Queries) (func() uint64, int) {
	n := a.Len()
	switch exp {
	case ExpAccess:
		return func() uint64 {
			var result uint64
			for _, p := range q.Access {
				pos := (uint64(p) * (result + 42)) % uint64(n)
				s, _ := a.Access(int(pos))
				result = uint64(s)
			}
			return result
		}, len(q.Access)
	case ExpRank:
		return func() uint64 {
			var result uint64
			for _, rq := range q.Rank {
				pos := (uint64(rq.Pos) + result) % uint64(n)
				r, _ := a.Rank(rq.Symbol, int(pos))
				result = uint64(r)
			}
			return result
		}, len(q.Rank)
	case ExpRankPrefetch:
		pf, ok := a.(wavelet.Prefetcher)
		if !ok {
			return nil, 0
		}
		return func() uint64 {
			var result uint64
			for i, rq := range q.Rank {
				if i+1 < len(q.Rank) {
					pf.Prefetch(q.Rank[i+1].Pos % n)
				}
				pos := (uint64(rq.Pos) + result) % uint64(n)
				r, _ := a.Rank(rq.Symbol, int(pos))
				result = uint64(r)
			}
			return result
		}, len(q.Rank)
	case ExpSelect:
		return func() uint64 {
			var result uint64
			for _, sq := range q.Select {
				k := max(1, sq.K-1+int(result%2))
				p, _ := a.Select(sq.Symbol, k)
				result = uint64(p)
			}
			return result
		}, len(q.Select)
	}
	return nil, 0
}
