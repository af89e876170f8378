// Package apierr centralizes OpenAI API error classification and retry
// behavior for the collaborator clients (transcription, generation).
// The core pipeline never retries; all retry policy lives here.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
var ErrRateLimit = errors.New("rate limit exceeded")

// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrTimeout indicates a request timed out.
var ErrTimeout = errors.New("request timeout")

// ErrAuthFailed indicates API authentication failed (invalid key).
var ErrAuthFailed = errors.New("authentication failed")

// ErrBadRequest indicates the API rejected the request as invalid.
var ErrBadRequest = errors.New("invalid request")

// Classify maps OpenAI API errors to sentinel errors.
// Uses errors.As for robust error type checking instead of string matching
// wherever the client library exposes typed errors.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Quota exhaustion also arrives as 429 but requires user
			// action, so it must not be retried.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", ErrTimeout)
	}

	return err
}

// IsRetryable reports whether an error is transient and worth retrying.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout) {
		return true
	}

	// Server errors (5xx) are retryable.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	// Cancellation, auth failures, quota exhaustion and malformed
	// requests never resolve on their own.
	return false
}
