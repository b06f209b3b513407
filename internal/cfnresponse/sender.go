package cfnresponse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// defaultTimeout bounds the single callback PUT.
const defaultTimeout = 10 * time.Second

// ErrMissingResponseURL is returned by Send when the event carried no URL.
var ErrMissingResponseURL = errors.New("response URL is empty")

// Sender delivers Response documents. It makes exactly one attempt per Send.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a Sender with its own HTTP client.
func NewSender() *Sender {
	return &Sender{httpClient: &http.Client{Timeout: defaultTimeout}}
}

// NewSenderWithClient creates a Sender that uses client.
func NewSenderWithClient(client *http.Client) *Sender {
	return &Sender{httpClient: client}
}

// Send PUTs resp to url. The receiving S3 presigned URL rejects any
// Content-Type other than the empty string and requires Content-Length.
// Transport errors and non-2xx statuses are returned, never retried.
func (s *Sender) Send(ctx context.Context, url string, resp Response) error {
	if url == "" {
		return ErrMissingResponseURL
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header["Content-Type"] = []string{""}
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	req.ContentLength = int64(len(body))

	start := time.Now()
	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put response: %w", err)
	}
	defer httpResp.Body.Close()

	log.Debug().
		Int("statusCode", httpResp.StatusCode).
		Str("status", string(resp.Status)).
		Int("bodySize", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Custom resource response delivered")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return fmt.Errorf("put response: unexpected status %d: %s", httpResp.StatusCode, truncate(string(respBody), 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
