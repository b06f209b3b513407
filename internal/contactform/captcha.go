package contactform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	captchaTimeout     = 5 * time.Second
)

// Verifier checks a captcha token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// RecaptchaVerifier verifies tokens with Google reCAPTCHA.
type RecaptchaVerifier struct {
	httpClient *http.Client
	secret     string
	verifyURL  string
}

// NewRecaptchaVerifier creates a verifier for the given site secret.
func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		httpClient: &http.Client{Timeout: captchaTimeout},
		secret:     secret,
		verifyURL:  recaptchaVerifyURL,
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the siteverify endpoint. A false result with a
// nil error means Google rejected the token.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var result siteVerifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("parse response: %w", err)
	}

	log.Debug().
		Bool("success", result.Success).
		Str("hostname", result.Hostname).
		Strs("errorCodes", result.ErrorCodes).
		Dur("duration", time.Since(start)).
		Msg("reCAPTCHA verification")
	return result.Success, nil
}
