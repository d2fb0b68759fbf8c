package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/quotegate/quotegate/internal/model"
)

// APIKeyHeader is the request header clients send their API key in.
const APIKeyHeader = "API_KEY"

// DispatcherConfig holds the values shared by every outgoing mail.
type DispatcherConfig struct {
	ApplicationName string
	ExternalAddress string
	From            string
}

// Dispatcher renders lifecycle mails and hands them to a Sender.
type Dispatcher struct {
	cfg    DispatcherConfig
	sender Sender
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig, sender Sender) *Dispatcher {
	cfg.ExternalAddress = strings.TrimSuffix(cfg.ExternalAddress, "/")
	return &Dispatcher{cfg: cfg, sender: sender}
}

// ValidationURL returns the link a registrant follows to validate token.
func (d *Dispatcher) ValidationURL(token string) string {
	return d.cfg.ExternalAddress + "/validate?id=" + url.QueryEscape(token)
}

// SendValidation mails the validation link for token to user.
func (d *Dispatcher) SendValidation(ctx context.Context, token string, user model.User, expiresIn time.Duration) error {
	subject, body, err := RenderValidation(ValidationParams{
		ApplicationName: d.cfg.ApplicationName,
		Name:            user.GivenName,
		ValidationURL:   d.ValidationURL(token),
		ExpiresIn:       humanizeDuration(expiresIn),
	})
	if err != nil {
		return err
	}

	return d.send(ctx, user.Email, subject, body)
}

// SendAPIKey mails a newly issued API key to user.
func (d *Dispatcher) SendAPIKey(ctx context.Context, apiKey string, user model.User) error {
	subject, body, err := RenderAPIKey(APIKeyParams{
		ApplicationName: d.cfg.ApplicationName,
		Name:            user.GivenName,
		APIKey:          apiKey,
		HeaderName:      APIKeyHeader,
		RequestURL:      d.cfg.ExternalAddress + "/get_stock",
	})
	if err != nil {
		return err
	}

	return d.send(ctx, user.Email, subject, body)
}

func (d *Dispatcher) send(ctx context.Context, to, subject, body string) error {
	err := d.sender.Send(ctx, Message{
		From:     d.cfg.From,
		To:       to,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}
	return nil
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a few minutes"
	case d%time.Hour == 0:
		return pluralize(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return pluralize(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
