package main

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pypehq/pype/pkg/mailer"
	"github.com/pypehq/pype/pkg/mailer/resend"
)

//go:embed mail
var mailFiles embed.FS

// newMailSender picks the delivery backend named by MAIL_DRIVER.
func newMailSender(cfg config, log *slog.Logger) (mailer.Sender, error) {
	switch cfg.Mail.Driver {
	case "", mailer.DriverLog:
		return mailer.NewLogSender(log), nil
	case mailer.DriverResend:
		return resend.New(cfg.Resend)
	default:
		return nil, fmt.Errorf("%w: %q", mailer.ErrUnknownDriver, cfg.Mail.Driver)
	}
}

func newMailer(cfg config, sender mailer.Sender) (*mailer.Mailer, error) {
	templates, err := fs.Sub(mailFiles, "mail")
	if err != nil {
		return nil, err
	}
	return mailer.New(sender, mailer.NewRenderer(templates), cfg.Mail), nil
}
