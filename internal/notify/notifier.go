package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Channel is the delivery medium for a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is a single outgoing notification.
type Message struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages. Implementations make a single attempt.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ErrUnsupportedChannel is returned by a notifier asked to deliver on a
// channel it cannot reach.
var ErrUnsupportedChannel = errors.New("unsupported channel")

// LogNotifier writes messages to the log instead of delivering them. It is
// the default when no mail relay is configured. Digit runs in the body are
// masked so one-time codes never reach the log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification",
		"channel", string(msg.Channel),
		"to", msg.To,
		"subject", msg.Subject,
		"body", maskDigits(msg.Body),
	)
	return nil
}

var digitRun = regexp.MustCompile(`[0-9]{4,}`)

func maskDigits(s string) string {
	return digitRun.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat("*", len(m))
	})
}

// SMTPConfig holds relay settings for SMTPNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(ctx context.Context, m *mail.Msg) error

// SMTPNotifier delivers email through an SMTP relay.
type SMTPNotifier struct {
	from string
	send sendFunc
	now  func() time.Time
}

// NewSMTPNotifier returns an SMTPNotifier. With a username the relay must
// offer STARTTLS and PLAIN auth is used; without one TLS is opportunistic.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	if err := mail.NewMsg().From(cfg.From); err != nil {
		return nil, fmt.Errorf("smtp from address: %w", err)
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithTLSPolicy(mail.TLSMandatory),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPNotifier{
		from: cfg.From,
		send: func(ctx context.Context, m *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, m)
		},
		now:  time.Now,
	}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if msg.Channel != ChannelEmail {
		return fmt.Errorf("smtp: %w: %s", ErrUnsupportedChannel, msg.Channel)
	}

	m, err := n.compose(msg)
	if err != nil {
		return err
	}
	if err := n.send(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// compose builds the MIME message. Header values are RFC 2047 encoded by
// go-mail, so non-ASCII subjects and names are safe.
func (n *SMTPNotifier) compose(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("smtp from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(n.now())
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// Router sends each message through the notifier registered for its channel.
type Router struct {
	Email Notifier
	SMS   Notifier
}

func (r Router) Send(ctx context.Context, msg Message) error {
	var n Notifier
	switch msg.Channel {
	case ChannelEmail:
		n = r.Email
	case ChannelSMS:
		n = r.SMS
	}
	if n == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, msg.Channel)
	}
	return n.Send(ctx, msg)
}
