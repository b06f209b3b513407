// Package contactform implements the website's contact form endpoint.
//
// A POST carries the visitor's email, message and a reCAPTCHA token, either
// as JSON or as a URL-encoded form. The handler drops honeypot submissions,
// validates the fields, verifies the captcha and emails the message to the
// site owner with the visitor as reply-to.
package contactform

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cullancarey/PortfolioWebsite/internal/metrics"
)

// Client-facing messages.
const (
	msgThanks           = "Thank you for your message! I will get back to you shortly."
	msgBotIgnored       = "Bot activity detected. Request ignored."
	msgInvalidContent   = "Invalid content type."
	msgInvalidJSON      = "Invalid JSON."
	msgMissingFields    = "Missing required fields."
	msgInvalidEmail     = "Invalid email address."
	msgCaptchaFailed    = "Captcha verification failed."
	msgSendFailed       = "Error sending message."
	msgInvalidPayload   = "Invalid request payload."
	msgMethodNotAllowed = "method not allowed"
)

// Config holds the addressing for outbound mail.
type Config struct {
	// Website is the form's host name, e.g. "form.example.com". The "form."
	// prefix is stripped to get the mail domain.
	Website string
	// Recipient receives every submission.
	Recipient string
}

// Domain returns the mail domain derived from Website.
func (c Config) Domain() string {
	return strings.TrimPrefix(c.Website, "form.")
}

// Handler serves the contact form endpoint.
type Handler struct {
	verifier Verifier
	mailer   Mailer
	cfg      Config
}

// NewHandler creates a contact form handler.
func NewHandler(verifier Verifier, mailer Mailer, cfg Config) *Handler {
	return &Handler{verifier: verifier, mailer: mailer, cfg: cfg}
}

// ServeHTTP accepts POST only.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	start := time.Now()
	outcome := h.handleSubmission(w, r)

	metrics.New(metrics.Namespace).
		Dimension("Outcome", outcome).
		Duration("ContactFormLatencyMs", time.Since(start)).
		Count("ContactFormCount").
		Flush()
}

// handleSubmission writes the response and returns a low-cardinality
// outcome label for metrics.
func (h *Handler) handleSubmission(w http.ResponseWriter, r *http.Request) string {
	sub, err := decodeSubmission(r)
	switch {
	case errors.Is(err, errInvalidContentType):
		log.Warn().Str("contentType", r.Header.Get("Content-Type")).Msg("Contact form: invalid content type")
		respondError(w, http.StatusBadRequest, msgInvalidContent)
		return "invalid_content_type"
	case errors.Is(err, errInvalidJSON):
		log.Warn().Msg("Contact form: invalid JSON body")
		respondError(w, http.StatusBadRequest, msgInvalidJSON)
		return "invalid_json"
	case err != nil:
		log.Error().Err(err).Msg("Contact form: failed to parse body")
		respondError(w, http.StatusBadRequest, msgInvalidPayload)
		return "invalid_payload"
	}

	if sub.BotCheck != "" {
		log.Warn().Msg("Contact form: honeypot field set, ignoring submission")
		respondJSON(w, http.StatusOK, map[string]string{"message": msgBotIgnored})
		return "bot"
	}

	if err := sub.Validate(); err != nil {
		if errors.Is(err, errInvalidEmail) {
			log.Warn().Msg("Contact form: invalid email address")
			respondError(w, http.StatusBadRequest, msgInvalidEmail)
			return "invalid_email"
		}
		log.Warn().Err(err).Msg("Contact form: missing required fields")
		respondError(w, http.StatusBadRequest, msgMissingFields)
		return "missing_fields"
	}

	ok, err := h.verifier.Verify(r.Context(), sub.CaptchaToken, clientIP(r))
	if err != nil {
		log.Error().Err(err).Msg("Contact form: captcha verification error")
	}
	if !ok {
		log.Warn().Msg("Contact form: captcha verification failed")
		respondError(w, http.StatusForbidden, msgCaptchaFailed)
		return "captcha_failed"
	}

	if err := h.mailer.Send(r.Context(), h.compose(sub)); err != nil {
		log.Error().Err(err).Msg("Contact form: failed to send email")
		respondError(w, http.StatusInternalServerError, msgSendFailed)
		return "send_failed"
	}

	log.Info().Int("messageLength", len(sub.MessageDetails)).Msg("Contact form submission delivered")
	respondJSON(w, http.StatusOK, map[string]string{"message": msgThanks})
	return "sent"
}

// compose builds the notification email. Visitor input is HTML-escaped in
// the HTML part.
func (h *Handler) compose(sub Submission) Message {
	domain := h.cfg.Domain()
	from := sub.CustomerEmail
	if sub.CustomerName != "" {
		from = fmt.Sprintf("%s (%s)", sub.CustomerName, sub.CustomerEmail)
	}

	text := fmt.Sprintf("Hi!\n\nYou've received a message from %s:\n\"%s\"\n\nYou can reply directly to this email.", from, sub.MessageDetails)
	htmlBody := fmt.Sprintf(`<html>
<body>
<p>Hi!<br>
You've received a message from <strong>%s</strong>.<br>
Message: "%s".<br>
Just hit reply to respond!</p>
</body>
</html>`, html.EscapeString(from), html.EscapeString(sub.MessageDetails))

	return Message{
		From:    "noreply@" + domain,
		To:      h.cfg.Recipient,
		ReplyTo: sub.CustomerEmail,
		Subject: "Inquiry from " + domain,
		Text:    text,
		HTML:    htmlBody,
	}
}

// clientIP prefers the first X-Forwarded-For hop, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
