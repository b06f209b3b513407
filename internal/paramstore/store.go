// Package paramstore defines the regional key/value parameter store consumed
// by the replicator, with an SSM Parameter Store implementation and an
// in-memory implementation.
//
// All Put methods overwrite any existing value at the key, so replaying the
// same writes converges to the same state.
package paramstore

import (
	"context"
	"errors"
	"fmt"
)

// Parameter types understood by the store. They mirror the SSM parameter
// types so a replicated value keeps the type it had in the source region.
const (
	TypeString       = "String"
	TypeStringList   = "StringList"
	TypeSecureString = "SecureString"
)

// Parameter is a single stored value.
type Parameter struct {
	Value string
	Type  string
}

// ErrNotFound is matched by errors.Is for every NotFoundError.
var ErrNotFound = errors.New("parameter not found")

// NotFoundError reports a key that does not exist in the store.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("parameter not found: %s", e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Reader reads parameters by key.
type Reader interface {
	// Get returns the parameter at key, or a *NotFoundError if it does not exist.
	Get(ctx context.Context, key string) (Parameter, error)
}

// Writer writes parameters by key.
type Writer interface {
	// Put creates or overwrites the parameter at key.
	Put(ctx context.Context, key string, p Parameter) error
}

// Store is a regional parameter store.
type Store interface {
	Reader
	Writer
}

// Opener returns a Store bound to the given region.
type Opener func(ctx context.Context, region string) (Store, error)
