package reliability

import "time"

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
// 529 is the overloaded status some model APIs return alongside 429.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504, 529:
		return true
	default:
		return false
	}
}

// IsRetryableCompletionCode classifies retryable provider error codes.
func IsRetryableCompletionCode(code string) bool {
	switch code {
	case "rate_limited", "rate_limit_error", "overloaded_error", "resource_exhausted", "timeout", "server_error":
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
