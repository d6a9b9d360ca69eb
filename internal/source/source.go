// Package source defines how raw readings are obtained from the metering
// API or one of its stand-ins.
package source

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher returns the raw JSON body served for an API path such as
// "/api/gas/automated".
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// ErrNotFound is returned by stand-in fetchers that hold nothing for a path.
var ErrNotFound = errors.New("no data for path")

// StatusError is a non-OK upstream response. Message is the body's "error"
// field when the API sent one.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}
