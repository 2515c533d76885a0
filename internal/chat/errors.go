package chat

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyMessage rejects a chat request with a missing or blank message.
	ErrEmptyMessage = errors.New("message is required and must be a non-empty string")
	// ErrEmptyJobDescription rejects an assessment request with a missing or
	// blank job description.
	ErrEmptyJobDescription = errors.New("job description is required and must be a non-empty string")

	// ErrRateLimited signals that the AI provider rejected the request due to
	// rate limiting.
	ErrRateLimited = errors.New("api rate limit reached, please try again later")
	// ErrEmptyResponse signals that the provider call succeeded but returned
	// no usable content.
	ErrEmptyResponse = errors.New("no response from ai provider")

	// ErrGenerationFailed is the generic failure for the chat flow.
	ErrGenerationFailed = errors.New("failed to generate response")
	// ErrAssessmentFailed is the generic failure for the job-fit flow.
	ErrAssessmentFailed = errors.New("failed to generate job assessment")
)

// IsValidation reports whether the error is an input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrEmptyJobDescription)
}

// isRateLimit detects provider-side rate limiting from the error text. The
// provider SDKs surface the HTTP status in the message, so a substring match
// is the only signal available.
func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
