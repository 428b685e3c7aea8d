package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kpreslar/connectrix/internal/classify"
	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/transport"
)

// base carries the shared collaborators and the default TestConnection
// behavior every strategy inherits by embedding.
type base struct {
	deps Deps
}

// TestConnection issues a single GET against the test URL and compares the
// response status with the expected-status allowlist from the test
// configuration. Failures are routed through the classifier; the echoed
// request carries redacted header values only.
func (b *base) TestConnection(ctx context.Context, url string, headers map[string]string, _ BuildInput, testConfig map[string]any) *models.TestOutcome {
	return b.request(ctx, url, headers, testConfig)
}

func (b *base) request(ctx context.Context, url string, headers map[string]string, testConfig map[string]any) *models.TestOutcome {
	start := time.Now()
	summary := &models.RequestSummary{
		Method:  http.MethodGet,
		URL:     url,
		Headers: RedactHeaders(headers),
	}

	resp, err := b.deps.Transport.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
		Timeout: timeoutValue(testConfig, transport.DefaultTimeout),
	})
	if err != nil {
		cerr := classify.FromError(err)
		b.deps.Logger.Info("connection test failed",
			logging.Component("auth"), logging.URL(url), logging.ErrorKind(cerr.Kind))
		return failureOutcome(cerr, nil, summary, start)
	}

	for _, expected := range expectedStatuses(testConfig) {
		if resp.StatusCode == expected {
			return &models.TestOutcome{
				Success:    true,
				StatusCode: &resp.StatusCode,
				DurationMS: time.Since(start).Milliseconds(),
				Message:    fmt.Sprintf("Connection successful (HTTP %d)", resp.StatusCode),
				Request:    summary,
				Timestamp:  time.Now(),
			}
		}
	}

	cerr := classify.FromStatus(resp.StatusCode, resp.RawBody)
	b.deps.Logger.Info("connection test rejected",
		logging.Component("auth"), logging.URL(url),
		logging.StatusCode(resp.StatusCode), logging.ErrorKind(cerr.Kind))
	return failureOutcome(cerr, &resp.StatusCode, summary, start)
}

func failureOutcome(cerr *models.ClassifiedError, statusCode *int, summary *models.RequestSummary, start time.Time) *models.TestOutcome {
	return &models.TestOutcome{
		Success:    false,
		StatusCode: statusCode,
		DurationMS: time.Since(start).Milliseconds(),
		Message:    cerr.Message,
		Request:    summary,
		Error:      cerr,
		Timestamp:  time.Now(),
	}
}
