package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Object keys and ids in endpoint labels would explode cardinality; they are
// collapsed to a template before labeling.
var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// RecordExternalAPICall records one call to an external dependency. The only
// external dependency of this service is the S3/MinIO report store, so the
// error taxonomy is scoped to what object storage calls actually fail with.
func (m *Metrics) RecordExternalAPICall(endpoint, method string, statusCode int, duration time.Duration, err error) {
	m.safeExecute("RecordExternalAPICall", func() {
		endpoint = normalizeEndpoint(endpoint)
		status := strconv.Itoa(statusCode)

		m.ExternalAPIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		m.ExternalAPIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())

		if err != nil || statusCode >= 400 {
			m.ExternalAPIErrors.WithLabelValues(endpoint, storageErrorType(statusCode, err)).Inc()
		}
	})
}

// normalizeEndpoint converts ids embedded in an endpoint to templates,
// e.g. /reports/123e4567-e89b-12d3-a456-426614174000 -> /reports/{id}
func normalizeEndpoint(endpoint string) string {
	return uuidPattern.ReplaceAllString(endpoint, "{id}")
}

// storageErrorType classifies a failed object storage call. Status codes win
// over transport errors; anything the bucket never returns falls through to
// the generic class.
func storageErrorType(statusCode int, err error) string {
	switch {
	case statusCode == 403:
		return "access_denied"
	case statusCode == 404:
		return "not_found"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode == 503:
		// S3 SlowDown / MinIO backpressure
		return "slow_down"
	case statusCode >= 500 && statusCode < 600:
		return "server_error"
	}

	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
			return "timeout"
		case strings.Contains(msg, "connection refused"):
			return "connection_refused"
		case strings.Contains(msg, "no such host"):
			return "dns_error"
		case strings.Contains(msg, "TLS") || strings.Contains(msg, "certificate"):
			return "tls_error"
		default:
			return "network_error"
		}
	}
	return "unknown"
}
