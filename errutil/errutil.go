// Package errutil holds the error taxonomy shared by the harness and the
// helpers used to turn those errors into an immediate, loud stop.
package errutil

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Every failure in the harness is classified by one of these sentinels.
// Callers match with errors.Is; producers wrap with fmt.Errorf("...: %w").
var (
	// ErrIO reports an unreadable input or an unwritable cache file.
	ErrIO = errors.New("io error")
	// ErrDeserialization reports cache bytes that do not decode to the
	// expected artifact type.
	ErrDeserialization = errors.New("deserialization error")
	// ErrConsistency reports two artifacts disagreeing on a query.
	ErrConsistency = errors.New("consistency error")
	// ErrArgument reports a missing or invalid command line flag.
	ErrArgument = errors.New("argument error")
	// ErrPrecondition reports a caller bug, such as timing calls made out
	// of sequence.
	ErrPrecondition = errors.New("precondition error")
)

// exit is swapped in tests.
var exit = os.Exit

// First returns the first non-nil error of errs. Every argument is
// evaluated by the caller, so it suits cleanup steps that must all run.
func First(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// FatalIf panics on a non-nil error. It is meant for package
// initialization, where nothing can return the error.
func FatalIf(err error, what string) {
	if err == nil {
		return
	}
	panic(fmt.Errorf("FATAL: %s: %w", what, err))
}

// Bug panics with an error wrapping ErrPrecondition.
func Bug(format string, msg ...any) {
	panic(fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, msg...)))
}

func BugOn(cond bool, format string, msg ...any) {
	if cond {
		Bug(format, msg...)
	}
}

// BugOnNotEq reports a broken construction invariant named by what.
func BugOnNotEq(got, want any, what string) {
	if got == want {
		return
	}
	Bug("%s: got %v, want %v", what, got, want)
}

// Exit prints err to stderr and terminates the process with status 1.
// A nil error is a no-op.
func Exit(err error) {
	ExitTo(os.Stderr, err)
}

func ExitTo(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "FATAL: %v\n", err)
	exit(1)
}
