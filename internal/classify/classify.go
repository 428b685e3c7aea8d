// Package classify maps transport failures and HTTP status codes into a
// closed taxonomy of error kinds. It performs no I/O and holds no state.
package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/kpreslar/connectrix/internal/models"
)

// Error kinds. The set is closed; callers switch on these values.
const (
	KindTimeout           = "timeout"
	KindDNSError          = "dns_error"
	KindConnectionRefused = "connection_refused"
	KindConnectionReset   = "connection_reset"
	KindAuthentication    = "authentication"
	KindAuthorization     = "authorization"
	KindNotFound          = "not_found"
	KindServerError       = "server_error"
	KindValidation        = "validation"
	KindHTTPError         = "http_error"
	KindUnknown           = "unknown"
)

var messages = map[string]string{
	KindTimeout:           "The request timed out before the provider responded",
	KindDNSError:          "The provider's hostname could not be resolved",
	KindConnectionRefused: "The provider refused the connection",
	KindConnectionReset:   "The connection was reset by the provider",
	KindAuthentication:    "Authentication failed; check the stored credentials",
	KindAuthorization:     "The credentials are valid but not permitted for this resource",
	KindNotFound:          "The test endpoint was not found",
	KindServerError:       "The provider returned a server error",
	KindValidation:        "The connection configuration is incomplete",
	KindHTTPError:         "The provider returned an unexpected status",
	KindUnknown:           "The connection test failed for an unknown reason",
}

// Message returns the fixed human-readable message for a kind.
func Message(kind string) string {
	if m, ok := messages[kind]; ok {
		return m
	}
	return messages[KindUnknown]
}

// FromError classifies a caught transport error. The raw error text is
// preserved as detail but never used as the user-facing message.
func FromError(err error) *models.ClassifiedError {
	kind := KindUnknown

	var dnsErr *net.DNSError
	var netErr net.Error
	msg := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(msg, "ETIMEDOUT"),
		strings.Contains(msg, "Client.Timeout"),
		strings.Contains(msg, "timeout"):
		kind = KindTimeout
	case errors.As(err, &dnsErr),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "ENOTFOUND"):
		kind = KindDNSError
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "ECONNREFUSED"):
		kind = KindConnectionRefused
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "ECONNRESET"),
		strings.Contains(msg, "broken pipe"):
		kind = KindConnectionReset
	}

	return &models.ClassifiedError{Kind: kind, Message: Message(kind), Detail: msg}
}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(statusCode int, body string) *models.ClassifiedError {
	var kind string
	switch {
	case statusCode == 401:
		kind = KindAuthentication
	case statusCode == 403:
		kind = KindAuthorization
	case statusCode == 404:
		kind = KindNotFound
	case statusCode >= 500:
		kind = KindServerError
	default:
		kind = KindHTTPError
	}

	detail := fmt.Sprintf("HTTP %d", statusCode)
	if body != "" {
		detail = fmt.Sprintf("HTTP %d: %s", statusCode, truncate(body, 200))
	}
	return &models.ClassifiedError{Kind: kind, Message: Message(kind), Detail: detail}
}

// Validation builds a pre-flight validation failure.
func Validation(detail string) *models.ClassifiedError {
	return &models.ClassifiedError{Kind: KindValidation, Message: Message(KindValidation), Detail: detail}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
