package resend

// Config holds Resend credentials. The sender address comes from
// mailer.Config.
type Config struct {
	APIKey string `env:"RESEND_API_KEY"`
}
