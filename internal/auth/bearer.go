package auth

import "fmt"

// bearerTokenStrategy sets a single header, by default
// "Authorization: Bearer <token>"; both the header name and the prefix are
// overridable per auth method.
type bearerTokenStrategy struct {
	base
}

func (s *bearerTokenStrategy) BuildHeaders(in BuildInput) (map[string]string, error) {
	tok, ok := in.Credentials["token"]
	if !ok || tok == "" {
		return nil, fmt.Errorf("credential %q is not set", "token")
	}

	headerName := stringValue(in.Config, "headerName", "Authorization")
	prefix := stringValue(in.Config, "prefix", "Bearer ")
	return map[string]string{headerName: prefix + s.deps.Decryptor.Decrypt(tok)}, nil
}
