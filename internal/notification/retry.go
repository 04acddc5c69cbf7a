package notification

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryNotifier retries transient delivery failures with exponential backoff.
type RetryNotifier struct {
	next     Notifier
	attempts uint64
	base     time.Duration
}

// NewRetryNotifier wraps next. attempts counts retries after the first try.
func NewRetryNotifier(next Notifier, attempts uint64, base time.Duration) *RetryNotifier {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &RetryNotifier{next: next, attempts: attempts, base: base}
}

// Send forwards the message, retrying on error until attempts run out or ctx ends.
func (r *RetryNotifier) Send(ctx context.Context, message Message) error {
	backoff := retry.WithMaxRetries(r.attempts, retry.NewExponential(r.base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.next.Send(ctx, message); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
