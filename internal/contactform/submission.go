package contactform

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodySize caps the contact form body. A message is a few KB at most.
const maxBodySize = 64 << 10

var (
	errInvalidContentType = errors.New("invalid content type")
	errInvalidJSON        = errors.New("invalid JSON")
	errMissingFields      = errors.New("missing required fields")
	errInvalidEmail       = errors.New("invalid email address")
)

// Submission is one contact form post. Field names match the HTML form.
type Submission struct {
	CustomerName   string
	CustomerEmail  string `validate:"required,email"`
	MessageDetails string `validate:"required"`
	CaptchaToken   string `validate:"required"`
	BotCheck       string
}

var validate = validator.New()

// Validate returns errMissingFields or errInvalidEmail.
func (s Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return errMissingFields
		}
	}
	return errInvalidEmail
}

// decodeSubmission reads a JSON or form-encoded body. API Gateway has already
// base64-decoded the body by the time the adapter builds the request.
func decodeSubmission(r *http.Request) (Submission, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return Submission{}, fmt.Errorf("read body: %w", err)
	}

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err = mime.ParseMediaType(ct)
		if err != nil {
			return Submission{}, errInvalidContentType
		}
	} else if strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		mediaType = "application/json"
	} else {
		mediaType = "application/x-www-form-urlencoded"
	}

	var fields map[string]string
	switch mediaType {
	case "application/json":
		fields, err = jsonFields(body)
	case "application/x-www-form-urlencoded":
		fields, err = formFields(body)
	default:
		return Submission{}, errInvalidContentType
	}
	if err != nil {
		return Submission{}, err
	}

	return Submission{
		CustomerName:   strings.TrimSpace(fields["CustomerName"]),
		CustomerEmail:  strings.TrimSpace(fields["CustomerEmail"]),
		MessageDetails: strings.TrimSpace(fields["MessageDetails"]),
		CaptchaToken:   strings.TrimSpace(fields["g-recaptcha-response"]),
		BotCheck:       strings.TrimSpace(fields["BotCheck"]),
	}, nil
}

func jsonFields(body []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errInvalidJSON
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case nil:
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	return fields, nil
}

func formFields(body []byte) (map[string]string, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, errInvalidContentType
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	return fields, nil
}
