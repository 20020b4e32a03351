package bench

// Sink accumulates values read from benchmarked artifacts so the
// compiler cannot prove the work that produced them is dead. The
// accumulated value means nothing; it is printed only to be observable.
type Sink struct {
	acc uint64
}

//go:noinline
func (s *Sink) Consume(v uint64) {
	s.acc += v
}

func (s *Sink) Value() uint64 { return s.acc }
