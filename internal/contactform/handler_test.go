package contactform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubVerifier struct {
	ok       bool
	err      error
	calls    int
	token    string
	remoteIP string
}

func (s *stubVerifier) Verify(_ context.Context, token, remoteIP string) (bool, error) {
	s.calls++
	s.token = token
	s.remoteIP = remoteIP
	return s.ok, s.err
}

type stubMailer struct {
	err  error
	sent []Message
}

func (s *stubMailer) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

const validJSON = `{"CustomerName":"Tester","CustomerEmail":"test@example.com","MessageDetails":"This is a test message.","g-recaptcha-response":"test-captcha-token"}`

func newTestHandler(v *stubVerifier, m *stubMailer) *Handler {
	return NewHandler(v, m, Config{Website: "form.example.com", Recipient: "owner@example.com"})
}

func post(h *Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestValidRequest(t *testing.T) {
	v := &stubVerifier{ok: true}
	m := &stubMailer{}
	rr := post(newTestHandler(v, m), "application/json", validJSON)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body := decodeBody(t, rr); body["message"] != msgThanks {
		t.Errorf("unexpected message %q", body["message"])
	}
	if v.token != "test-captcha-token" || v.remoteIP != "203.0.113.7" {
		t.Errorf("unexpected verify args token=%q ip=%q", v.token, v.remoteIP)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.From != "noreply@example.com" || msg.To != "owner@example.com" || msg.ReplyTo != "test@example.com" {
		t.Errorf("unexpected addressing %+v", msg)
	}
	if msg.Subject != "Inquiry from example.com" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "This is a test message.") {
		t.Errorf("text body missing message: %q", msg.Text)
	}
}

func TestFormEncodedRequest(t *testing.T) {
	m := &stubMailer{}
	body := "CustomerName=Tester&CustomerEmail=test%40example.com&MessageDetails=Hello+there&g-recaptcha-response=tok"
	rr := post(newTestHandler(&stubVerifier{ok: true}, m), "application/x-www-form-urlencoded", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(m.sent) != 1 || m.sent[0].ReplyTo != "test@example.com" || !strings.Contains(m.sent[0].Text, "Hello there") {
		t.Errorf("form fields not decoded: %+v", m.sent)
	}
}

func TestInvalidJSON(t *testing.T) {
	rr := post(newTestHandler(&stubVerifier{ok: true}, &stubMailer{}), "application/json", "{invalid_json}")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != msgInvalidJSON {
		t.Errorf("unexpected error %q", body["error"])
	}
}

func TestInvalidContentType(t *testing.T) {
	rr := post(newTestHandler(&stubVerifier{ok: true}, &stubMailer{}), "text/plain", validJSON)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), msgInvalidContent) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestMissingFields(t *testing.T) {
	v := &stubVerifier{ok: true}
	rr := post(newTestHandler(v, &stubMailer{}), "application/json", `{"foo":"bar"}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != msgMissingFields {
		t.Errorf("unexpected error %q", body["error"])
	}
	if v.calls != 0 {
		t.Error("captcha must not be verified for incomplete submissions")
	}
}

func TestInvalidEmail(t *testing.T) {
	body := `{"CustomerEmail":"not-an-email","MessageDetails":"hi","g-recaptcha-response":"tok"}`
	rr := post(newTestHandler(&stubVerifier{ok: true}, &stubMailer{}), "application/json", body)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != msgInvalidEmail {
		t.Errorf("unexpected error %q", body["error"])
	}
}

func TestBotCheckField(t *testing.T) {
	v := &stubVerifier{ok: true}
	m := &stubMailer{}
	body := `{"CustomerEmail":"test@example.com","MessageDetails":"hi","g-recaptcha-response":"tok","BotCheck":"on"}`
	rr := post(newTestHandler(v, m), "application/json", body)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["message"] != msgBotIgnored {
		t.Errorf("unexpected message %q", body["message"])
	}
	if v.calls != 0 || len(m.sent) != 0 {
		t.Error("honeypot submissions must not verify captcha or send email")
	}
}

func TestCaptchaRejected(t *testing.T) {
	m := &stubMailer{}
	rr := post(newTestHandler(&stubVerifier{ok: false}, m), "application/json", validJSON)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != msgCaptchaFailed {
		t.Errorf("unexpected error %q", body["error"])
	}
	if len(m.sent) != 0 {
		t.Error("email must not be sent when captcha fails")
	}
}

func TestCaptchaError(t *testing.T) {
	rr := post(newTestHandler(&stubVerifier{err: errors.New("dial tcp: timeout")}, &stubMailer{}), "application/json", validJSON)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 when captcha cannot be verified, got %d", rr.Code)
	}
}

func TestSendFailure(t *testing.T) {
	rr := post(newTestHandler(&stubVerifier{ok: true}, &stubMailer{err: errors.New("SES send failed")}), "application/json", validJSON)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != msgSendFailed {
		t.Errorf("unexpected error %q", body["error"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	newTestHandler(&stubVerifier{}, &stubMailer{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestComposeEscapesHTML(t *testing.T) {
	h := newTestHandler(&stubVerifier{}, &stubMailer{})
	msg := h.compose(Submission{CustomerEmail: "a@example.com", MessageDetails: "<script>alert(1)</script>"})

	if strings.Contains(msg.HTML, "<script>") {
		t.Errorf("HTML body not escaped: %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "&lt;script&gt;") {
		t.Errorf("expected escaped script tag: %s", msg.HTML)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.4:5123"
	if got := clientIP(req); got != "198.51.100.4" {
		t.Errorf("expected RemoteAddr host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("expected forwarded address, got %q", got)
	}
}
