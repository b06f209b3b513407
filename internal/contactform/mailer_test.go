package contactform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	fake := &fakeSES{}
	m := &SESMailer{client: fake}

	err := m.Send(context.Background(), Message{
		From:    "noreply@example.com",
		To:      "owner@example.com",
		ReplyTo: "visitor@example.com",
		Subject: "Inquiry from example.com",
		Text:    "text body",
		HTML:    "<p>html body</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := fake.in
	if aws.ToString(in.FromEmailAddress) != "noreply@example.com" {
		t.Errorf("unexpected from %q", aws.ToString(in.FromEmailAddress))
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "owner@example.com" {
		t.Errorf("unexpected destination %v", in.Destination.ToAddresses)
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "visitor@example.com" {
		t.Errorf("unexpected reply-to %v", in.ReplyToAddresses)
	}
	simple := in.Content.Simple
	if aws.ToString(simple.Subject.Data) != "Inquiry from example.com" {
		t.Errorf("unexpected subject %q", aws.ToString(simple.Subject.Data))
	}
	if aws.ToString(simple.Body.Text.Data) != "text body" || aws.ToString(simple.Body.Html.Data) != "<p>html body</p>" {
		t.Error("unexpected body content")
	}
}

func TestSESMailer_SendError(t *testing.T) {
	m := &SESMailer{client: &fakeSES{err: errors.New("MessageRejected: Email address is not verified")}}

	err := m.Send(context.Background(), Message{From: "a@example.com", To: "b@example.com"})
	if err == nil || !strings.Contains(err.Error(), "MessageRejected") {
		t.Errorf("expected wrapped SES error, got %v", err)
	}
}
