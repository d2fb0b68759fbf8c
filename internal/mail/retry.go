package mail

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// Backoff between delivery attempts.
// Attempt 1: 250ms, Attempt 2: 1s, Attempt 3: 4s
var retryDelays = []time.Duration{
	250 * time.Millisecond,
	1 * time.Second,
	4 * time.Second,
}

const (
	// DefaultMaxAttempts is the default number of delivery attempts.
	DefaultMaxAttempts = 3

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay returns the backoff after a failed attempt, with jitter.
// attempt is 0-indexed.
func NextRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}

	base := retryDelays[attempt]
	jitter := (rand.Float64()*2 - 1) * float64(base) * JitterFactor

	return time.Duration(float64(base) + jitter)
}

// Retryable reports whether a failed Send is worth repeating. Provider
// throttling, provider 5xx and transport failures are; rejected requests
// and caller cancellation are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}

// RetryingSender retries transient delivery failures of the wrapped Sender.
type RetryingSender struct {
	next        Sender
	maxAttempts int
	maxElapsed  time.Duration
	delay       func(attempt int) time.Duration
	logger      *slog.Logger
}

// NewRetryingSender wraps next. maxAttempts <= 0 uses DefaultMaxAttempts.
// maxElapsed bounds one Send across all attempts and backoffs; zero leaves
// it to the caller's context.
func NewRetryingSender(next Sender, maxAttempts int, maxElapsed time.Duration, logger *slog.Logger) *RetryingSender {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingSender{
		next:        next,
		maxAttempts: maxAttempts,
		maxElapsed:  maxElapsed,
		delay:       NextRetryDelay,
		logger:      logger,
	}
}

// Send delivers msg, retrying while the failure is Retryable and attempts
// remain. It returns the last error.
func (s *RetryingSender) Send(ctx context.Context, msg Message) error {
	if s.maxElapsed > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.maxElapsed)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err = s.next.Send(ctx, msg); err == nil {
			return nil
		}
		if !Retryable(err) || attempt == s.maxAttempts-1 {
			break
		}

		wait := s.delay(attempt)
		s.logger.WarnContext(ctx, "mail delivery failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
