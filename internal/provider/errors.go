package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a provider failure. Every adapter returns one of these so
// the orchestrator can record errors uniformly and decide retry eligibility.
type Kind string

const (
	KindAuth        Kind = "AuthError"
	KindRateLimited Kind = "RateLimited"
	KindTimeout     Kind = "Timeout"
	KindProvider    Kind = "ProviderError"
	KindMalformed   Kind = "MalformedResponse"
)

// Error is a classified provider failure scoped to a single model call.
type Error struct {
	Provider string
	Kind     Kind
	Status   int
	Detail   string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Detail)
}

// statusKind maps an HTTP status code to an error kind.
func statusKind(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindProvider
	}
}

// wrapTransportErr classifies a transport-level failure from client.Do.
// Context expiry becomes a Timeout; everything else is a ProviderError.
func wrapTransportErr(providerName string, ctx context.Context, err error) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Provider: providerName, Kind: KindTimeout, Detail: "request timed out"}
	}
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return &Error{Provider: providerName, Kind: KindTimeout, Detail: "request canceled"}
	}
	return &Error{Provider: providerName, Kind: KindProvider, Detail: err.Error()}
}

// ClassifyKind extracts the error kind from any error returned by an
// adapter, falling back to ProviderError for unclassified failures and
// Timeout for bare context expiry.
func ClassifyKind(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindProvider
}
