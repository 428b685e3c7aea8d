// Package server implements the admin REST API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/adminauth"
	"github.com/kpreslar/connectrix/internal/api"
	"github.com/kpreslar/connectrix/internal/conntest"
	"github.com/kpreslar/connectrix/internal/db"
	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/models"
)

// APIServer handles connection testing and schema validation over HTTP.
type APIServer struct {
	Store  *db.Store
	Tester *conntest.Tester
	Logger *zap.Logger
}

// AuthMiddleware validates admin API key authentication for all routes.
func (s *APIServer) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}
		apiKey := strings.TrimPrefix(authHeader, "Bearer ")

		prefix, _, err := adminauth.ParseAPIKey(apiKey)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}

		storedKey, err := s.Store.GetAPIKeyByPrefix(r.Context(), prefix)
		if err != nil || storedKey == nil || storedKey.RevokedAt != nil {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}
		if !adminauth.VerifyAPIKey(apiKey, storedKey.KeyHash) {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler for the admin API.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/connections/{id}/test", s.handleTestConnection)
	mux.HandleFunc("POST /v1/connections/test", s.handleTestBeforeSave)
	mux.HandleFunc("POST /v1/schemas/validate", s.handleValidateSchema)
	mux.HandleFunc("GET /v1/connections/{id}", s.handleGetConnection)

	return s.AuthMiddleware(mux)
}

func (s *APIServer) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	outcome, err := s.Tester.TestExistingConnection(r.Context(), id)
	if errors.Is(err, conntest.ErrConnectionNotFound) {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "connection not found"})
		return
	}
	if err != nil {
		s.Logger.Error("test connection failed",
			logging.Component("api"), logging.ConnectionID(id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (s *APIServer) handleTestBeforeSave(w http.ResponseWriter, r *http.Request) {
	var req api.TestBeforeSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.IntegrationID == "" || req.AuthMethodID == "" {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "integration_id and auth_method_id are required"})
		return
	}

	outcome, err := s.Tester.TestBeforeSave(r.Context(), conntest.BeforeSaveInput{
		IntegrationID: req.IntegrationID,
		AuthMethodID:  req.AuthMethodID,
		Credentials:   req.Credentials,
		Variables:     req.Variables,
	})
	if err != nil {
		s.Logger.Error("before-save test failed",
			logging.Component("api"), logging.Integration(req.IntegrationID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (s *APIServer) handleValidateSchema(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	result := conntest.ValidateAuthSchema(&req.AuthSchema)
	resp := api.ValidateSchemaResponse{Valid: result.Valid}
	for _, issue := range result.Issues {
		resp.Issues = append(resp.Issues, api.SchemaIssueInfo{
			AuthMethodID: issue.AuthMethodID,
			Field:        issue.Field,
			Placeholder:  issue.Placeholder,
			Message:      issue.Message,
			Suggestion:   issue.Suggestion,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conn, err := s.Store.GetConnection(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "database error"})
		return
	}
	if conn == nil {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "connection not found"})
		return
	}

	resp := api.ConnectionResponse{
		ID:              conn.ID,
		UserID:          conn.UserID,
		IntegrationID:   conn.IntegrationID,
		AuthMethodID:    conn.AuthMethodID,
		SchemeKey:       conn.SchemeKey,
		Variables:       conn.Variables,
		HasTokens:       conn.Tokens != nil,
		LastTestStatus:  conn.LastTestStatus,
		LastTestMessage: conn.LastTestMessage,
	}
	if conn.LastTestAt != nil {
		resp.LastTestAt = conn.LastTestAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toOutcomeResponse(outcome *models.TestOutcome) api.TestOutcomeResponse {
	resp := api.TestOutcomeResponse{
		Success:    outcome.Success,
		StatusCode: outcome.StatusCode,
		DurationMS: outcome.DurationMS,
		Message:    outcome.Message,
		Timestamp:  outcome.Timestamp.UTC().Format(time.RFC3339),
	}
	if outcome.Request != nil {
		resp.Request = &api.RequestInfo{
			Method:  outcome.Request.Method,
			URL:     outcome.Request.URL,
			Headers: outcome.Request.Headers,
		}
	}
	if outcome.Error != nil {
		resp.Error = &api.ErrorInfo{
			Kind:    outcome.Error.Kind,
			Message: outcome.Error.Message,
			Detail:  outcome.Error.Detail,
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
