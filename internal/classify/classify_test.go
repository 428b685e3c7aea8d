package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorSubstrings(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{errors.New("connect ETIMEDOUT 10.0.0.1:443"), KindTimeout},
		{context.DeadlineExceeded, KindTimeout},
		{fmt.Errorf("do request: %w", context.DeadlineExceeded), KindTimeout},
		{errors.New("dial tcp: lookup api.nope.invalid: no such host"), KindDNSError},
		{errors.New("getaddrinfo ENOTFOUND api.nope.invalid"), KindDNSError},
		{errors.New("dial tcp 127.0.0.1:9: connect: connection refused"), KindConnectionRefused},
		{errors.New("read tcp: connection reset by peer"), KindConnectionReset},
		{errors.New("socket hang up ECONNRESET"), KindConnectionReset},
		{errors.New("something went sideways"), KindUnknown},
	}

	for _, tt := range tests {
		got := FromError(tt.err)
		assert.Equal(t, tt.kind, got.Kind, "error %q", tt.err)
		assert.Equal(t, Message(tt.kind), got.Message)
		assert.Equal(t, tt.err.Error(), got.Detail)
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		kind string
	}{
		{401, KindAuthentication},
		{403, KindAuthorization},
		{404, KindNotFound},
		{500, KindServerError},
		{503, KindServerError},
		{418, KindHTTPError},
		{301, KindHTTPError},
	}

	for _, tt := range tests {
		got := FromStatus(tt.code, "")
		assert.Equal(t, tt.kind, got.Kind, "status %d", tt.code)
		assert.Equal(t, fmt.Sprintf("HTTP %d", tt.code), got.Detail)
	}
}

func TestFromStatusBodyTruncated(t *testing.T) {
	body := ""
	for i := 0; i < 50; i++ {
		body += "0123456789"
	}
	got := FromStatus(500, body)
	assert.LessOrEqual(t, len(got.Detail), len("HTTP 500: ")+203)
}

func TestValidation(t *testing.T) {
	got := Validation("missing required credential fields: apiKey")
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, "missing required credential fields: apiKey", got.Detail)
}
