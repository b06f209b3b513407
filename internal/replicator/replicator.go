// Package replicator copies SSM parameters from one region to another on
// behalf of a CloudFormation custom resource, and reports the aggregate
// outcome to the stack's callback URL.
//
// Pairs are replicated strictly in order and the first failing pair stops
// the run; pairs before it stay written. Every invocation ends with exactly
// one callback attempt.
package replicator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cullancarey/PortfolioWebsite/internal/paramstore"
)

// DefaultCallTimeout bounds each individual store call.
const DefaultCallTimeout = 5 * time.Second

// PairError identifies the first pair that failed and the step that failed.
type PairError struct {
	Index int // zero-based position in the request
	Pair  Pair
	Op    string // "read" or "write"
	Err   error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("parameter %d (%s -> %s): %s failed: %v", e.Index+1, e.Pair.Source, e.Pair.Target, e.Op, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}

// Replicator reads from a source store and writes to a target store.
type Replicator struct {
	source      paramstore.Reader
	target      paramstore.Writer
	callTimeout time.Duration
}

// New creates a Replicator. A zero callTimeout uses DefaultCallTimeout.
func New(source paramstore.Reader, target paramstore.Writer, callTimeout time.Duration) *Replicator {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Replicator{source: source, target: target, callTimeout: callTimeout}
}

// Replicate copies each pair in order and stops at the first error. It
// returns the number of pairs written before returning.
func (r *Replicator) Replicate(ctx context.Context, pairs []Pair) (int, error) {
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return i, &PairError{Index: i, Pair: pair, Op: "read", Err: err}
		}

		param, err := r.get(ctx, pair.Source)
		if err != nil {
			return i, &PairError{Index: i, Pair: pair, Op: "read", Err: err}
		}
		if err := r.put(ctx, pair.Target, param); err != nil {
			return i, &PairError{Index: i, Pair: pair, Op: "write", Err: err}
		}

		log.Info().
			Int("index", i+1).
			Int("total", len(pairs)).
			Str("source", pair.Source).
			Str("target", pair.Target).
			Str("type", param.Type).
			Msg("Parameter replicated")
	}
	return len(pairs), nil
}

func (r *Replicator) get(ctx context.Context, key string) (paramstore.Parameter, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.source.Get(ctx, key)
}

func (r *Replicator) put(ctx context.Context, key string, p paramstore.Parameter) error {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.target.Put(ctx, key, p)
}
