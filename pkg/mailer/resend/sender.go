// Package resend delivers mailer messages through the Resend API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/pypehq/pype/pkg/mailer"
)

var ErrMissingAPIKey = errors.New("resend: missing API key")

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
}

// Option configures a Sender.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the client used to reach the API.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func New(cfg Config, opts ...Option) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	o := &options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}
	return &Sender{client: resend.NewCustomClient(o.httpClient, cfg.APIKey)}, nil
}

func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Cc:      email.CC,
		Bcc:     email.BCC,
		Headers: email.Headers,
	}
	for _, a := range email.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		})
	}
	for name, v := range email.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: tagValue(v)})
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// tagValue renders a tag value as a string; presence-only tags send "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
