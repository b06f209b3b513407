package replicator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment variables holding the deployed replication configuration.
const (
	EnvSourceRegion = "SOURCE_REGION"
	EnvTargetRegion = "TARGET_REGION"
	EnvParameters   = "PARAMETERS"
)

// Pair maps one source key to one target key.
type Pair struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// Request is the resolved input of one replication. A nil Parameters slice
// means "not configured" and fails validation; an empty one is a no-op.
type Request struct {
	SourceRegion string `json:"sourceRegion" validate:"required"`
	TargetRegion string `json:"targetRegion" validate:"required"`
	Parameters   []Pair `json:"parameters" validate:"required,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every missing field in one error.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid replication request: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.TrimPrefix(fe.Namespace(), "Request."))
	}
	return fmt.Errorf("invalid replication request: missing %s", strings.Join(fields, ", "))
}

// FromEnv reads the replication configuration from the environment.
// PARAMETERS is a JSON array of {"source","target"} objects. Unset variables
// leave the corresponding fields empty; a malformed PARAMETERS is an error.
func FromEnv() (Request, error) {
	req := Request{
		SourceRegion: os.Getenv(EnvSourceRegion),
		TargetRegion: os.Getenv(EnvTargetRegion),
	}
	raw := strings.TrimSpace(os.Getenv(EnvParameters))
	if raw == "" {
		return req, nil
	}
	if err := json.Unmarshal([]byte(raw), &req.Parameters); err != nil {
		return req, fmt.Errorf("parse %s: %w", EnvParameters, err)
	}
	if req.Parameters == nil {
		req.Parameters = []Pair{}
	}
	return req, nil
}

// Merge returns r with every field that override sets replacing r's.
func (r Request) Merge(override Request) Request {
	if override.SourceRegion != "" {
		r.SourceRegion = override.SourceRegion
	}
	if override.TargetRegion != "" {
		r.TargetRegion = override.TargetRegion
	}
	if override.Parameters != nil {
		r.Parameters = override.Parameters
	}
	return r
}
