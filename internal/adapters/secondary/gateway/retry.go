package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// RetryableError marks an error as transient so Retry tries again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// RetryPolicy bounds the retry loop. Delays grow linearly: Backoff after the
// first failure, 2*Backoff after the second, and so on.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is three attempts with a 500ms step.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts are used up, or ctx is done.
func Retry(ctx context.Context, policy RetryPolicy, clock ports.TimeProvider, fn func(attempt int) error) error {
	attempts := max(policy.MaxAttempts, 1)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}

		if attempt < attempts {
			if err := ports.SleepContext(ctx, clock, policy.Backoff*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	return lastErr
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// RetryTransport decorates an HTTPClient with the retry policy. Transport
// errors and 5xx responses are retried; 4xx responses are returned as is.
// When retries are exhausted on a 5xx the result is a *GatewayError.
type RetryTransport struct {
	next    ports.HTTPClient
	policy  RetryPolicy
	clock   ports.TimeProvider
	logger  *slog.Logger
	metrics *monitoring.Metrics
}

// NewRetryTransport wraps next.
func NewRetryTransport(next ports.HTTPClient, policy RetryPolicy, clock ports.TimeProvider, logger *slog.Logger, metrics *monitoring.Metrics) *RetryTransport {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryTransport{next: next, policy: policy, clock: clock, logger: logger, metrics: metrics}
}

// Do sends req, retrying transient failures. Requests with a body must be
// rewindable (GetBody set) to be retried.
func (t *RetryTransport) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointName(req)
	var resp *http.Response

	err := Retry(ctx, t.policy, t.clock, func(attempt int) error {
		if attempt > 1 {
			t.metrics.GatewayRetry(endpoint)
			t.logger.Warn("retrying backend request",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt))

			if req.Body != nil && req.Body != http.NoBody {
				if req.GetBody == nil {
					return fmt.Errorf("request body for %s cannot be replayed", endpoint)
				}
				body, err := req.GetBody()
				if err != nil {
					return fmt.Errorf("rewinding request body: %w", err)
				}
				req.Body = body
			}
		}

		r, err := t.next.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: fmt.Errorf("%s: %w", endpoint, err)}
		}

		if r.StatusCode >= http.StatusInternalServerError {
			gwErr := newGatewayError(endpoint, r)
			return &RetryableError{Err: gwErr}
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// endpointName turns /api/generate-presentation into generate-presentation.
func endpointName(req *http.Request) string {
	name := strings.TrimPrefix(req.URL.Path, "/")
	name = strings.TrimPrefix(name, "api/")
	if name == "" {
		return "root"
	}
	return name
}

// drain closes a response body after discarding what is left of it.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
