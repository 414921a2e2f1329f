package smtp

import (
	"fmt"
	"log/slog"
)

// Config holds SMTP server configuration.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`

	// Secure selects implicit TLS (usually port 465). When false the session
	// starts in plaintext and upgrades with STARTTLS if the server offers it.
	Secure bool `env:"SMTP_SECURE" envDefault:"false"`

	// LocalName is the hostname sent with HELO/EHLO (default: "localhost").
	LocalName string `env:"SMTP_LOCAL_NAME"`

	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `env:"SMTP_INSECURE_SKIP_VERIFY"`
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogValue implements slog.LogValuer. The password is never logged.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr()),
		slog.String("username", c.Username),
		slog.Bool("secure", c.Secure),
	)
}

// String implements fmt.Stringer with the password redacted.
func (c Config) String() string {
	return fmt.Sprintf("smtp://%s@%s (secure=%t)", c.Username, c.Addr(), c.Secure)
}
