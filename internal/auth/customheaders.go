package auth

import (
	"github.com/kpreslar/connectrix/internal/logging"
)

// customHeadersStrategy sets an explicit list of headers, each sourced from
// a named credential with an optional value prefix. A missing credential is
// logged and skipped; it never aborts the whole call.
type customHeadersStrategy struct {
	base
}

func (s *customHeadersStrategy) BuildHeaders(in BuildInput) (map[string]string, error) {
	headers := make(map[string]string)
	for _, mapping := range headerMappings(in.Config) {
		value, ok := in.Credentials[mapping.credentialKey]
		if !ok || value == "" {
			s.deps.Logger.Warn("credential missing for custom header, skipping",
				logging.Component("auth"), logging.Header(mapping.headerName))
			continue
		}
		headers[mapping.headerName] = mapping.prefix + s.deps.Decryptor.Decrypt(value)
	}
	return headers, nil
}

type headerMapping struct {
	headerName    string
	credentialKey string
	prefix        string
}

// headerMappings parses the {headerName, credentialKey, prefix} triples from
// the untyped config document, dropping malformed entries.
func headerMappings(cfg map[string]any) []headerMapping {
	raw, ok := cfg["headers"].([]any)
	if !ok {
		return nil
	}

	var mappings []headerMapping
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m := headerMapping{
			headerName:    stringValue(entry, "headerName", ""),
			credentialKey: stringValue(entry, "credentialKey", ""),
			prefix:        stringValue(entry, "prefix", ""),
		}
		if m.headerName == "" || m.credentialKey == "" {
			continue
		}
		mappings = append(mappings, m)
	}
	return mappings
}
