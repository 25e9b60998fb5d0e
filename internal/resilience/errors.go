package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// IsTransient reports whether an error looks like a passing network or
// server condition that another attempt could clear. Permanent conditions
// (missing fetch capability, a selector that matched nothing on a healthy
// page) must not be retried; callers exclude them up front via ShouldRetry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"http 429",
		"http 5",
		"retries exhausted",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
