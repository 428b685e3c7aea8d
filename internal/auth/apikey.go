package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kpreslar/connectrix/internal/models"
)

// apiKeyStrategy places a single API key either in a header or in a query
// parameter, per the auth method's placement config.
type apiKeyStrategy struct {
	base
}

func (s *apiKeyStrategy) BuildHeaders(in BuildInput) (map[string]string, error) {
	key, ok := in.Credentials["apiKey"]
	if !ok || key == "" {
		return nil, fmt.Errorf("credential %q is not set", "apiKey")
	}

	if stringValue(in.Config, "placement", "header") != "header" {
		// Query placement mutates the URL, not the headers; see TestConnection.
		return map[string]string{}, nil
	}

	headerName := stringValue(in.Config, "headerName", "X-API-Key")
	prefix := stringValue(in.Config, "prefix", "")
	return map[string]string{headerName: prefix + s.deps.Decryptor.Decrypt(key)}, nil
}

// TestConnection appends the key as a query parameter before delegating to
// the shared request logic when the method is configured for query placement.
func (s *apiKeyStrategy) TestConnection(ctx context.Context, testURL string, headers map[string]string, in BuildInput, testConfig map[string]any) *models.TestOutcome {
	if stringValue(in.Config, "placement", "header") == "query" {
		paramName := stringValue(in.Config, "paramName", "api_key")
		key := s.deps.Decryptor.Decrypt(in.Credentials["apiKey"])
		testURL = appendQueryParam(testURL, paramName, key)
	}
	return s.request(ctx, testURL, headers, testConfig)
}

func appendQueryParam(rawURL, name, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(name) + "=" + url.QueryEscape(value)
}
