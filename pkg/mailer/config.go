package mailer

// Driver names accepted in MAIL_DRIVER.
const (
	DriverLog    = "log"
	DriverResend = "resend"
)

// Config holds mailer settings. Nest it in the app config and parse it with
// caarlos0/env.
type Config struct {
	Driver          string `env:"MAIL_DRIVER" envDefault:"log"`
	FromEmail       string `env:"MAIL_FROM_EMAIL" envDefault:"noreply@example.com"`
	FromName        string `env:"MAIL_FROM_NAME" envDefault:"Pype"`
	FallbackSubject string `env:"MAIL_FALLBACK_SUBJECT" envDefault:"Notification"`
	DefaultLayout   string `env:"MAIL_DEFAULT_LAYOUT" envDefault:"base.html"`
}

// From is the default sender address in "Name <email>" form.
func (c Config) From() string {
	return Recipient(c.FromName, c.FromEmail)
}
