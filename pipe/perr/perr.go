// Package perr defines the error taxonomy shared by every pipe, bucket
// and retry implementation in pipecraft.
//
// Kinds are deliberately coarse: callers that need to react to a
// specific failure mode use errors.As against the typed wrapper
// (HTTPError, InterruptionError, ...), while code that only needs the
// broad category (is this retryable, is this fatal) uses Kind() or
// the IsX helpers below.
package perr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the taxonomy from the error handling
// design: IO, OutOfOrder, Validation, HTTP, JDBC, IllegalJSON,
// QueueProducer, Internal and Interruption.
type Kind int

const (
	// KindUnknown is returned by Classify for errors outside the taxonomy.
	KindUnknown Kind = iota
	KindIO
	KindOutOfOrder
	KindValidation
	KindHTTP
	KindJDBC
	KindIllegalJSON
	KindQueueProducer
	KindInternal
	KindInterruption
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindOutOfOrder:
		return "out_of_order"
	case KindValidation:
		return "validation"
	case KindHTTP:
		return "http"
	case KindJDBC:
		return "jdbc"
	case KindIllegalJSON:
		return "illegal_json"
	case KindQueueProducer:
		return "queue_producer"
	case KindInternal:
		return "internal"
	case KindInterruption:
		return "interruption"
	default:
		return "unknown"
	}
}

// kindError is the concrete type behind every taxonomy error. It wraps
// an underlying cause so errors.Is/As/Unwrap keep working through the
// taxonomy the way they would through a plain fmt.Errorf("%w", err).
type kindError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() error { return e.cause }

// Kind reports the taxonomy kind of e.
func (e *kindError) Kind() Kind { return e.kind }

// New builds a taxonomy error of the given kind with no underlying cause.
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Wrap annotates err with kind and msg. Wrap(nil, ...) returns nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, msg: msg, cause: err}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...), cause: err}
}

// IO wraps err as a KindIO error - the underlying file/network/subprocess
// failure category.
func IO(err error, msg string) error { return Wrap(KindIO, err, msg) }

// OutOfOrder reports a pipe that promised sorted input seeing a
// descending pair.
func OutOfOrder(msg string) error { return New(KindOutOfOrder, msg) }

// Validation reports a user predicate/transform rejecting an item.
func Validation(msg string) error { return New(KindValidation, msg) }

// HTTPError carries the non-2xx status code of an HTTP pipe source.
type HTTPError struct {
	StatusCode int
	URL        string
	cause      error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.URL)
}

func (e *HTTPError) Unwrap() error { return e.cause }

// Kind implements the kind-classified error interface.
func (e *HTTPError) Kind() Kind { return KindHTTP }

// HTTP builds an HTTPError for a non-2xx response.
func HTTP(statusCode int, url string) error {
	return &HTTPError{StatusCode: statusCode, URL: url}
}

// JDBC wraps err as a KindJDBC error - underlying database connection
// or query failure. No SQL driver ships in this module (see SPEC_FULL.md
// non-goals); the kind exists so a future database/sql-backed source
// pipe has a taxonomy slot to report into.
func JDBC(err error, msg string) error { return Wrap(KindJDBC, err, msg) }

// IllegalJSON reports a remote JSON blob that could not be parsed into
// the requested shape.
func IllegalJSON(err error, msg string) error { return Wrap(KindIllegalJSON, err, msg) }

// QueueProducer wraps an error signalled by the upstream of a
// queue-backed bridge.
func QueueProducer(err error) error { return Wrap(KindQueueProducer, err, "queue producer failed") }

// Internal wraps an unexpected programming error (a panic recovered at
// a pipe boundary, an invariant violation, ...).
func Internal(err error, msg string) error { return Wrap(KindInternal, err, msg) }

// Interruption is always terminal; it signals that a blocking wait was
// cancelled, typically via context.Context cancellation.
type InterruptionError struct {
	cause error
}

func (e *InterruptionError) Error() string {
	if e.cause == nil {
		return "interrupted"
	}
	return "interrupted: " + e.cause.Error()
}

func (e *InterruptionError) Unwrap() error { return e.cause }

// Kind implements the kind-classified error interface.
func (e *InterruptionError) Kind() Kind { return KindInterruption }

// Interruption wraps a context cancellation (or similar) as the
// taxonomy's terminal interruption kind.
func Interruption(cause error) error { return &InterruptionError{cause: cause} }

// kinded is implemented by every taxonomy error.
type kinded interface {
	Kind() Kind
}

// Classify returns the taxonomy Kind of err, walking the Unwrap chain,
// or KindUnknown if err (or nothing in its chain) carries one.
func Classify(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// IsInterruption reports whether err (or its chain) is an interruption.
func IsInterruption(err error) bool { return Classify(err) == KindInterruption }

// IsRetryable reports whether err's kind is conventionally transient
// (IO, HTTP, JDBC); everything else, and KindInterruption in
// particular, is never retried.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindIO, KindHTTP, KindJDBC:
		return true
	default:
		return false
	}
}

// Aggregate combines multiple close() errors into a single error,
// preferring the first non-nil one and recording the rest as
// suppressed causes reachable via Suppressed. Returns nil if every
// element of errs is nil.
type Aggregate struct {
	First      error
	Suppressed []error
}

func (a *Aggregate) Error() string {
	if len(a.Suppressed) == 0 {
		return a.First.Error()
	}
	return fmt.Sprintf("%s (+%d suppressed)", a.First.Error(), len(a.Suppressed))
}

func (a *Aggregate) Unwrap() error { return a.First }

// CombineClose aggregates a set of resource-close errors per the
// propagation policy: all closes are attempted, the first error is
// raised, the rest are attached as suppressed causes. Returns nil if
// every argument is nil.
func CombineClose(errs ...error) error {
	var first error
	var rest []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		} else {
			rest = append(rest, err)
		}
	}
	if first == nil {
		return nil
	}
	if len(rest) == 0 {
		return first
	}
	return &Aggregate{First: first, Suppressed: rest}
}
