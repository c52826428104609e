package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request is a single instruction for the inference service. ImageURL, when
// set, is a data URL carrying the document raster.
type Request struct {
	Op     string // operation label for latency stats ("ground", "refine", ...)
	System string
	Prompt string

	ImageURL string

	MaxTokens   int
	Temperature float64

	// ForceJSON asks the service for a JSON-object response where the
	// backend supports it. Vision calls leave this unset and rely on
	// prompt-level instructions instead.
	ForceJSON bool
}

// Completer is the capability boundary to the inference service. Complete
// returns the full response text; Stream invokes fn once per text delta
// until the response ends or fn returns an error.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, fn func(delta string) error) error
}

// TransportError marks a failed call to the inference service, as opposed to
// a call that succeeded but returned unusable text. The extraction pipeline
// branches to its fallback stage on transport errors only.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference call failed (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
