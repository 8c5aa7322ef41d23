package notify

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
)

var (
	// ErrInvalidInput is returned for a missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCodeInvalid is returned when a code is wrong, expired or already used.
	ErrCodeInvalid = errors.New("invalid or expired code")
)

// DefaultCodeTTL is how long a one-time code stays valid.
const DefaultCodeTTL = 10 * time.Minute

const codeDigits = 6

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// CodeStore persists hashed one-time codes. *config.Store satisfies it.
type CodeStore interface {
	CreateVerificationCode(ctx context.Context, code *model.VerificationCode) error
	LatestVerificationCode(ctx context.Context, destination string, purpose model.CodePurpose) (*model.VerificationCode, error)
	ConsumeVerificationCode(ctx context.Context, id int64) error
}

// Config controls the notification service.
type Config struct {
	CodeTTL       time.Duration
	DeletionInbox string
}

// Service issues and checks one-time codes and sends transactional messages.
type Service struct {
	store    CodeStore
	notifier Notifier
	cfg      Config
	logger   *slog.Logger

	now    func() time.Time
	random io.Reader
}

func NewService(store CodeStore, notifier Notifier, cfg Config, logger *slog.Logger) *Service {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	return &Service{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// ClassifyDestination returns the channel for a destination: an email address
// when it contains "@", otherwise a phone number for SMS. Phone numbers may
// contain spaces, dashes and parentheses, which are stripped.
func ClassifyDestination(destination string) (Channel, string, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return "", "", fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}

	if strings.Contains(destination, "@") {
		addr, err := mail.ParseAddress(destination)
		if err != nil {
			return "", "", fmt.Errorf("%w: invalid email address %q", ErrInvalidInput, destination)
		}
		return ChannelEmail, strings.ToLower(addr.Address), nil
	}

	phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(destination)
	if !phonePattern.MatchString(phone) {
		return "", "", fmt.Errorf("%w: invalid phone number %q", ErrInvalidInput, destination)
	}
	return ChannelSMS, phone, nil
}

// SendCode generates a code for purpose, stores its hash and delivers it.
func (s *Service) SendCode(ctx context.Context, purpose model.CodePurpose, destination string) error {
	channel, to, err := ClassifyDestination(destination)
	if err != nil {
		return err
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	record := &model.VerificationCode{
		Destination: to,
		Purpose:     purpose,
		CodeHash:    hashCode(code),
		ExpiresAt:   s.now().Add(s.cfg.CodeTTL),
	}
	if err := s.store.CreateVerificationCode(ctx, record); err != nil {
		return err
	}

	subject, body := codeMessage(purpose, code, s.cfg.CodeTTL)
	if err := s.notifier.Send(ctx, Message{Channel: channel, To: to, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("send %s code: %w", purpose, err)
	}

	s.logger.InfoContext(ctx, "verification code sent", "purpose", string(purpose), "channel", string(channel))
	return nil
}

// VerifyCode checks code against the newest outstanding code for destination
// and purpose. A matching code is consumed and cannot be used again.
func (s *Service) VerifyCode(ctx context.Context, purpose model.CodePurpose, destination, code string) error {
	_, to, err := ClassifyDestination(destination)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	record, err := s.store.LatestVerificationCode(ctx, to, purpose)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}

	if !s.now().Before(record.ExpiresAt) {
		return ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare([]byte(hashCode(code)), []byte(record.CodeHash)) != 1 {
		return ErrCodeInvalid
	}

	// Losing a race with a concurrent verify of the same code counts as a miss.
	if err := s.store.ConsumeVerificationCode(ctx, record.ID); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}
	return nil
}

// PurchaseItem is one line of an order.
type PurchaseItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// PurchaseConfirmation describes a completed order.
type PurchaseConfirmation struct {
	Destination string         `json:"destination"`
	Name        string         `json:"name"`
	OrderID     string         `json:"orderId"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Items       []PurchaseItem `json:"items"`
}

// SendPurchaseConfirmation renders and sends an order confirmation.
func (s *Service) SendPurchaseConfirmation(ctx context.Context, p PurchaseConfirmation) error {
	channel, to, err := ClassifyDestination(p.Destination)
	if err != nil {
		return err
	}
	if p.OrderID == "" {
		return fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your purchase. Order %s is confirmed.\n", greetingName(p.Name), p.OrderID)
	if len(p.Items) > 0 {
		b.WriteString("\nItems:\n")
		for _, item := range p.Items {
			fmt.Fprintf(&b, "  %d x %s  %.2f %s\n", item.Quantity, item.Name, item.Price, p.Currency)
		}
	}
	fmt.Fprintf(&b, "\nTotal: %.2f %s\n", p.Amount, p.Currency)

	msg := Message{Channel: channel, To: to, Subject: "Purchase confirmation " + p.OrderID, Body: b.String()}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("send purchase confirmation: %w", err)
	}
	return nil
}

// DeletionRequest is a user's request to have their data erased.
type DeletionRequest struct {
	Destination string `json:"destination"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
}

// SendDeletionRequest acknowledges a data deletion request to the requester
// and, when an inbox is configured, forwards it there for processing.
func (s *Service) SendDeletionRequest(ctx context.Context, r DeletionRequest) error {
	channel, to, err := ClassifyDestination(r.Destination)
	if err != nil {
		return err
	}

	ack := Message{
		Channel: channel,
		To:      to,
		Subject: "Data deletion request received",
		Body: fmt.Sprintf("Hi %s,\n\nWe received your request to delete your data. "+
			"It will be processed within 30 days.\n", greetingName(r.Name)),
	}
	if err := s.notifier.Send(ctx, ack); err != nil {
		return fmt.Errorf("send deletion acknowledgement: %w", err)
	}

	if s.cfg.DeletionInbox == "" {
		return nil
	}
	reason := r.Reason
	if reason == "" {
		reason = "(none given)"
	}
	forward := Message{
		Channel: ChannelEmail,
		To:      s.cfg.DeletionInbox,
		Subject: "Data deletion request: " + to,
		Body:    fmt.Sprintf("Requester: %s\nContact: %s\nReason: %s\n", r.Name, to, reason),
	}
	if err := s.notifier.Send(ctx, forward); err != nil {
		return fmt.Errorf("forward deletion request: %w", err)
	}
	return nil
}

func (s *Service) generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(s.random, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func codeMessage(purpose model.CodePurpose, code string, ttl time.Duration) (subject, body string) {
	switch purpose {
	case model.PurposeResetPassword:
		return "Your password reset code",
			fmt.Sprintf("Your password reset code is %s. It expires in %s.\n"+
				"If you did not ask to reset your password, ignore this message.\n", code, ttl)
	default:
		return "Your verification code",
			fmt.Sprintf("Your verification code is %s. It expires in %s.\n", code, ttl)
	}
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
