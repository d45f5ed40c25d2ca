package resilient

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrorKind classifies a failed fetch attempt.
type ErrorKind int

const (
	// KindTransport: the request could not be completed (connection, DNS,
	// TLS, rate limit wait, request construction).
	KindTransport ErrorKind = iota + 1
	// KindResponseBroken: a response arrived but its body could not be read.
	KindResponseBroken
	// KindJSONParse: the body is not valid JSON.
	KindJSONParse
	// KindNotWantedJSONFormat: the JSON parsed but the extraction path or the
	// typed decode did not fit it.
	KindNotWantedJSONFormat
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindResponseBroken:
		return "response broken"
	case KindJSONParse:
		return "json parse error"
	case KindNotWantedJSONFormat:
		return "not wanted json format"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrTransport           = errors.New("resilient: transport")
	ErrResponseBroken      = errors.New("resilient: response broken")
	ErrJSONParse           = errors.New("resilient: json parse error")
	ErrNotWantedJSONFormat = errors.New("resilient: not wanted json format")
)

// Error is the failure returned by Fetch.
type Error struct {
	Kind ErrorKind
	// Detail is the last textual form of the payload for
	// KindNotWantedJSONFormat; empty otherwise.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := "resilient: " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += " (payload: " + truncate(e.Detail, 256) + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindResponseBroken:
		return ErrResponseBroken
	case KindJSONParse:
		return ErrJSONParse
	case KindNotWantedJSONFormat:
		return ErrNotWantedJSONFormat
	default:
		return nil
	}
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
