package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse means the model call succeeded but carried no usable text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Client is the minimal surface the enrichment pipeline needs: one prompt in,
// a bounded sequence of free-text segments out. Segments carry no guaranteed
// structure; callers keyword-scan them.
type Client interface {
	Name() string
	GenerateSegments(ctx context.Context, prompt string, maxSegments int) ([]string, error)
	Close() error
}

// Middleware wraps a Client with cross-cutting behavior.
type Middleware func(Client) Client

// Chain applies middlewares left to right around base.
func Chain(base Client, mws ...Middleware) Client {
	out := base
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) *PermanentError { return &PermanentError{Err: err} }
