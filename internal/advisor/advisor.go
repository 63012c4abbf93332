package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-bot/internal/domain/vehicle"
)

// Generator produces plain-language maintenance advice from a completed
// assessment. Implementations must not mutate the request.
type Generator interface {
	Generate(ctx context.Context, req AdviceRequest) (*Advice, error)
}

// AdviceRequest carries everything the generator needs: the snapshot
// that was scored and the assessment the engine produced from it.
type AdviceRequest struct {
	Snapshot   vehicle.Snapshot
	Assessment vehicle.Assessment
}

// Advice is the generated recommendation text plus usage accounting.
type Advice struct {
	Text  string
	Usage UsageInfo
}

// UsageInfo tracks token usage for monitoring.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

var (
	// ErrRateLimit indicates the upstream rate limit has been exceeded.
	ErrRateLimit = errors.New("advisor rate limit exceeded")

	// ErrTimeout indicates the request timed out.
	ErrTimeout = errors.New("advisor request timed out")

	// ErrUnavailable indicates the upstream service is temporarily down.
	ErrUnavailable = errors.New("advisor service temporarily unavailable")

	// ErrUnauthorized indicates invalid API credentials.
	ErrUnauthorized = errors.New("advisor authentication failed")
)

// IsRetryable reports whether the error is transient and worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}

// WrapError wraps an error with the advisor operation that failed.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("advisor %s: %w", operation, err)
}
