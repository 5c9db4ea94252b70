package mailer

import "fmt"

// Tags label a message for the provider. A struct{}{} value marks a
// presence-only tag; providers that need a value send "true".
type Tags map[string]any

func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats an RFC 5322 address, or the bare email when name is
// empty.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a fully rendered message.
type Email struct {
	Headers     map[string]string
	Tags        Tags
	From        string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	To          []string
	CC          []string
	BCC         []string
	Attachments []Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string // set for inline images
	Content     []byte
}
