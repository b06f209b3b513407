package replicator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cullancarey/PortfolioWebsite/internal/cfnresponse"
	"github.com/cullancarey/PortfolioWebsite/internal/metrics"
	"github.com/cullancarey/PortfolioWebsite/internal/paramstore"
)

// DefaultInvocationTimeout bounds the whole replication, leaving headroom
// under the Lambda's 60 s timeout for the callback PUT.
const DefaultInvocationTimeout = 45 * time.Second

// DefaultCallbackHeadroom is the time reserved before the invocation
// deadline for the callback PUT. It also bounds the PUT itself.
const DefaultCallbackHeadroom = 10 * time.Second

// Event is a CloudFormation custom resource event, optionally carrying the
// replication configuration inline. Inline fields take precedence over the
// environment.
type Event struct {
	cfn.Event
	SourceRegion string `json:"sourceRegion,omitempty"`
	TargetRegion string `json:"targetRegion,omitempty"`
	Parameters   []Pair `json:"parameters,omitempty"`
}

// DecodeEvent decodes a custom resource payload. When the payload does not
// fit Event, the returned Event still carries whichever callback fields
// could be read as strings, so the failure can be reported.
func DecodeEvent(payload []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(payload, &event)
	if err == nil {
		return event, nil
	}

	var fields map[string]json.RawMessage
	_ = json.Unmarshal(payload, &fields)
	str := func(key string) string {
		var v string
		_ = json.Unmarshal(fields[key], &v)
		return v
	}
	return Event{Event: cfn.Event{
		RequestType:        cfn.RequestType(str("RequestType")),
		RequestID:          str("RequestId"),
		ResponseURL:        str("ResponseURL"),
		ResourceType:       str("ResourceType"),
		PhysicalResourceID: str("PhysicalResourceId"),
		LogicalResourceID:  str("LogicalResourceId"),
		StackID:            str("StackId"),
	}}, fmt.Errorf("decode event: %w", err)
}

// Callback delivers the result document. Implemented by *cfnresponse.Sender.
type Callback interface {
	Send(ctx context.Context, url string, resp cfnresponse.Response) error
}

// Config holds the per-deployment settings of a Handler.
type Config struct {
	// Defaults is the environment-provided request, overridden by inline event fields.
	Defaults Request
	// DefaultsErr is the error from loading Defaults, reported on invocations
	// that do not supply their own parameters.
	DefaultsErr error
	// LogStream is the Lambda log stream name, used for the default reason
	// and as the physical resource ID.
	LogStream         string
	CallTimeout       time.Duration
	InvocationTimeout time.Duration
	CallbackHeadroom  time.Duration
}

// Handler runs one replication per custom resource event.
type Handler struct {
	open     paramstore.Opener
	callback Callback
	cfg      Config
}

// NewHandler creates a Handler. Zero timeouts in cfg take their defaults.
func NewHandler(open paramstore.Opener, callback Callback, cfg Config) *Handler {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.InvocationTimeout <= 0 {
		cfg.InvocationTimeout = DefaultInvocationTimeout
	}
	if cfg.CallbackHeadroom <= 0 {
		cfg.CallbackHeadroom = DefaultCallbackHeadroom
	}
	return &Handler{open: open, callback: callback, cfg: cfg}
}

// Handle is the Lambda entry point. The payload is decoded here rather than
// by the runtime so that a payload of the wrong shape is still answered
// with a FAILED callback.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) error {
	event, err := DecodeEvent(payload)
	if err != nil {
		start := time.Now()
		logger := eventLogger(event)
		logger.Error().Err(err).Msg("Custom resource event could not be decoded")
		h.report(ctx, logger, event, start, 0, fmt.Errorf("invalid replication request: %w", err))
		return nil
	}
	return h.HandleEvent(ctx, event)
}

// HandleEvent replicates the configured parameters and sends exactly one
// callback. Create, Update and Delete all take the same path. It always
// returns nil: a failed callback has no second channel to report through.
func (h *Handler) HandleEvent(ctx context.Context, event Event) error {
	start := time.Now()
	logger := eventLogger(event)
	logger.Info().Str("stackId", event.StackID).Msg("Custom resource event received")

	replicateCtx, cancel := context.WithTimeout(ctx, h.replicationBudget(ctx))
	count, err := h.replicate(replicateCtx, event)
	cancel()

	h.report(ctx, logger, event, start, count, err)
	return nil
}

// report builds the result document, delivers it once and flushes metrics.
// Delivery runs detached from ctx so an expired invocation context cannot
// suppress the callback; CallbackHeadroom bounds it instead.
func (h *Handler) report(ctx context.Context, logger zerolog.Logger, event Event, start time.Time, count int, err error) {
	physicalID := h.physicalID(event)

	rec := metrics.New(metrics.Namespace).
		Duration("ReplicationLatencyMs", time.Since(start)).
		Metric("ParametersReplicated", float64(count), metrics.UnitCount).
		Count("ReplicationCount").
		Property("requestId", event.RequestID)

	var resp cfnresponse.Response
	if err != nil {
		logger.Error().Err(err).Int("replicated", count).Msg("Replication failed")
		resp = cfnresponse.Failed(event.Event, physicalID, err)
	} else {
		logger.Info().Int("replicated", count).Dur("duration", time.Since(start)).Msg("Replication succeeded")
		resp = cfnresponse.Success(event.Event, physicalID, h.cfg.LogStream, map[string]interface{}{
			"Message":        "Replication complete",
			"ParameterCount": strconv.Itoa(count),
		})
	}
	rec.Dimension("Status", string(resp.Status))

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.CallbackHeadroom)
	defer cancel()
	if sendErr := h.callback.Send(sendCtx, event.ResponseURL, resp); sendErr != nil {
		logger.Error().Err(sendErr).Str("status", string(resp.Status)).Msg("Failed to send custom resource response")
		rec.Count("CallbackDeliveryFailed")
	} else {
		logger.Info().Str("status", string(resp.Status)).Msg("Custom resource response sent")
	}
	rec.Flush()
}

// replicationBudget is InvocationTimeout, shortened so that at least
// CallbackHeadroom remains before ctx's deadline.
func (h *Handler) replicationBudget(ctx context.Context) time.Duration {
	budget := h.cfg.InvocationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) - h.cfg.CallbackHeadroom; remaining < budget {
			budget = remaining
		}
	}
	return budget
}

func eventLogger(event Event) zerolog.Logger {
	return log.With().
		Str("requestType", string(event.RequestType)).
		Str("requestId", event.RequestID).
		Str("logicalResourceId", event.LogicalResourceID).
		Logger()
}

// replicate resolves the request, opens both regional stores and copies
// the pairs. A panic in a store is converted into an error so the callback
// is still sent.
func (h *Handler) replicate(ctx context.Context, event Event) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("replication panicked: %v", r)
		}
	}()

	req, err := h.resolve(event)
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("sourceRegion", req.SourceRegion).
		Str("targetRegion", req.TargetRegion).
		Int("parameters", len(req.Parameters)).
		Msg("Replicating parameters")

	source, err := h.open(ctx, req.SourceRegion)
	if err != nil {
		return 0, fmt.Errorf("open source store in %s: %w", req.SourceRegion, err)
	}
	target, err := h.open(ctx, req.TargetRegion)
	if err != nil {
		return 0, fmt.Errorf("open target store in %s: %w", req.TargetRegion, err)
	}

	return New(source, target, h.cfg.CallTimeout).Replicate(ctx, req.Parameters)
}

func (h *Handler) resolve(event Event) (Request, error) {
	if event.Parameters == nil && h.cfg.DefaultsErr != nil {
		return Request{}, fmt.Errorf("invalid replication request: %w", h.cfg.DefaultsErr)
	}
	req := h.cfg.Defaults.Merge(Request{
		SourceRegion: event.SourceRegion,
		TargetRegion: event.TargetRegion,
		Parameters:   event.Parameters,
	})
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// physicalID keeps the ID CloudFormation already knows on Update and
// Delete, so the resource is never replaced.
func (h *Handler) physicalID(event Event) string {
	if event.PhysicalResourceID != "" {
		return event.PhysicalResourceID
	}
	if h.cfg.LogStream != "" {
		return h.cfg.LogStream
	}
	return "ssm-replicator-" + uuid.NewString()
}
