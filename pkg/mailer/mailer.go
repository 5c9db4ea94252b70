package mailer

import (
	"bytes"
	"context"
	"errors"
	texttemplate "text/template"
)

// Mailer renders templates and sends them through a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New builds a Mailer. An empty DefaultLayout or FallbackSubject takes the
// env default.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	if cfg.DefaultLayout == "" {
		cfg.DefaultLayout = "base.html"
	}
	if cfg.FallbackSubject == "" {
		cfg.FallbackSubject = "Notification"
	}
	return &Mailer{sender: sender, renderer: renderer, config: cfg}
}

// SendParams describes one templated message. Everything but To and
// Template is optional.
type SendParams struct {
	To       string
	Template string
	Data     any

	Subject     string
	Layout      string
	From        string
	ReplyTo     string
	CC          []string
	BCC         []string
	Tags        Tags
	Attachments []Attachment
}

// Send renders params.Template and delivers it. Render failures wrap
// ErrRenderFailed and delivery failures wrap ErrSendFailed.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if params.To == "" {
		return ErrNoRecipient
	}

	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}
	out, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		subject, _ = out.Metadata["Subject"].(string)
	}
	if subject == "" {
		subject = m.config.FallbackSubject
	}
	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	return m.SendRaw(ctx, &Email{
		To:          []string{params.To},
		Subject:     subject,
		HTML:        out.HTML,
		Text:        out.Text,
		From:        params.From,
		ReplyTo:     params.ReplyTo,
		CC:          params.CC,
		BCC:         params.BCC,
		Tags:        params.Tags,
		Attachments: params.Attachments,
	})
}

// SendRaw delivers a prepared message, filling From from the config when
// empty.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) error {
	switch {
	case len(email.To) == 0:
		return ErrNoRecipient
	case email.Subject == "":
		return ErrNoSubject
	case email.HTML == "":
		return ErrNoContent
	}
	if email.From == "" {
		email.From = m.config.From()
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func executeSubject(subject string, data any) (string, error) {
	t, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
