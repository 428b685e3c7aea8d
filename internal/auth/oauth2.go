package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/token"
	"github.com/kpreslar/connectrix/internal/transport"
)

// refreshTimeout bounds a token refresh call; refreshes get a little more
// room than ordinary test calls.
const refreshTimeout = 15 * time.Second

// oauth2Strategy covers the authorization-code, client-credentials and
// service-account variants. At header-building time they are identical: the
// access token has already been obtained and stored, and this strategy only
// attaches it. Initial token acquisition happens elsewhere.
type oauth2Strategy struct {
	base
}

func (s *oauth2Strategy) BuildHeaders(in BuildInput) (map[string]string, error) {
	if in.Tokens == nil || in.Tokens.AccessToken == "" {
		return nil, ErrNoStoredToken
	}

	tokenType := in.Tokens.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return map[string]string{"Authorization": tokenType + " " + in.Tokens.AccessToken}, nil
}

// RefreshToken posts a grant_type=refresh_token form to the configured
// refresh URL and returns a full replacement token record. The prior refresh
// token is retained when the provider does not return a new one.
func (s *oauth2Strategy) RefreshToken(ctx context.Context, in BuildInput) (*models.StoredTokenRecord, error) {
	refreshURL := stringValue(in.Config, "refreshUrl", "")
	if refreshURL == "" {
		return nil, fmt.Errorf("no refresh URL configured")
	}
	if in.Tokens == nil || in.Tokens.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", in.Tokens.RefreshToken)
	form.Set("client_id", s.deps.Decryptor.Decrypt(in.Credentials["clientId"]))
	form.Set("client_secret", s.deps.Decryptor.Decrypt(in.Credentials["clientSecret"]))

	resp, err := s.deps.Transport.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     refreshURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
		Timeout: refreshTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh endpoint returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		Scope        string `json:"scope"`
	}
	if err := json.Unmarshal([]byte(resp.RawBody), &body); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("refresh response contained no access token")
	}

	rec := &models.StoredTokenRecord{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		TokenType:    body.TokenType,
		ExpiresAt:    token.ExpiryFromExpiresIn(body.ExpiresIn),
		Scope:        body.Scope,
	}
	if rec.RefreshToken == "" {
		rec.RefreshToken = in.Tokens.RefreshToken
	}
	if rec.TokenType == "" {
		rec.TokenType = in.Tokens.TokenType
	}

	s.deps.Logger.Info("access token refreshed", logging.Component("auth"))
	return rec, nil
}
