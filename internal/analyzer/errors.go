package analyzer

import (
	"errors"
	"net/http"
	"strings"
)

// Failure taxonomy for analysis invocations. Quota and transient failures are
// retried up to the configured budget; malformed responses are fatal and
// surface immediately.
var (
	ErrQuotaExceeded = errors.New("analysis quota exceeded: reduce sampling rate or try again later")
	ErrUnavailable   = errors.New("analysis service unavailable")
	ErrMalformed     = errors.New("malformed analysis response")
)

// MapHTTPStatus maps analyzer errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrQuotaExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrMalformed) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type failureKind int

const (
	failureTransient failureKind = iota
	failureQuota
	failureFatal
)

var (
	quotaMarkers = []string{"429", "quota", "rate limit", "resource exhausted", "too many requests"}
	fatalMarkers = []string{"400", "invalid argument", "unsupported", "bad request"}
)

// classifyFailure buckets a remote error by sniffing its message. Provider
// SDKs do not expose a stable error taxonomy, so status markers in the text
// are the only reliable signal.
func classifyFailure(err error) failureKind {
	msg := strings.ToLower(err.Error())

	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return failureQuota
		}
	}
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return failureFatal
		}
	}
	return failureTransient
}
