package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies why a completion failed.
type Kind int

const (
	// KindTransport covers network failures and timeouts.
	KindTransport Kind = iota + 1
	// KindAuth means the credential was rejected or missing.
	KindAuth
	// KindUpstream means the remote service failed, before or during the stream.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindUpstream:
		return "upstream"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single failure type completion clients report.
type Error struct {
	Kind   Kind
	Status int // HTTP status when the endpoint answered, else 0
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FromStatus classifies a failure the endpoint answered with an HTTP status.
func FromStatus(status int, err error) *Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindAuth, Status: status, Err: err}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &Error{Kind: KindTransport, Status: status, Err: err}
	default:
		return &Error{Kind: KindUpstream, Status: status, Err: err}
	}
}

// Classify maps an arbitrary error to an *Error. Errors that are already
// classified pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransport, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransport, Err: err}
	}
	return &Error{Kind: KindUpstream, Err: err}
}

// IsKind reports whether err is a completion failure of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}
