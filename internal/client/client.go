// Package client is a small HTTP client for the admin API, used by the CLI.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kpreslar/connectrix/internal/api"
	"github.com/kpreslar/connectrix/internal/models"
)

type Client struct {
	BaseURL string
	APIKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

// TestConnection runs a connectivity test for a persisted connection.
func (c *Client) TestConnection(connectionID string) (*api.TestOutcomeResponse, error) {
	var result api.TestOutcomeResponse
	err := c.do(http.MethodPost, "/v1/connections/"+connectionID+"/test", nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TestBeforeSave runs a dry-run test for unsaved credentials.
func (c *Client) TestBeforeSave(req api.TestBeforeSaveRequest) (*api.TestOutcomeResponse, error) {
	var result api.TestOutcomeResponse
	if err := c.do(http.MethodPost, "/v1/connections/test", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateSchema statically validates an auth schema document.
func (c *Client) ValidateSchema(schema models.AuthSchema) (*api.ValidateSchemaResponse, error) {
	var result api.ValidateSchemaResponse
	err := c.do(http.MethodPost, "/v1/schemas/validate", api.ValidateSchemaRequest{AuthSchema: schema}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetConnection fetches a connection with its secrets stripped.
func (c *Client) GetConnection(connectionID string) (*api.ConnectionResponse, error) {
	var result api.ConnectionResponse
	if err := c.do(http.MethodGet, "/v1/connections/"+connectionID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(method, path string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func parseError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("API error (%d)", resp.StatusCode)
}
