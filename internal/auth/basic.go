package auth

import (
	"encoding/base64"

	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/models"
)

// basicAuthStrategy resolves username and password templates against the
// credential map, then sets "Authorization: Basic base64(user:pass)".
// Templates may be a literal, a single placeholder, or a composite like
// "{{email}}/{{token}}".
type basicAuthStrategy struct {
	base
}

func (s *basicAuthStrategy) BuildHeaders(in BuildInput) (map[string]string, error) {
	username := s.deps.Template.Substitute(
		stringValue(in.Config, "username", "{{username}}"), in.Credentials, in.Variables)
	password := s.deps.Template.Substitute(
		stringValue(in.Config, "password", "{{password}}"), in.Credentials, in.Variables)

	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	headers := map[string]string{"Authorization": "Basic " + encoded}

	for _, field := range in.AdditionalFields {
		if field.UseAs != "header" {
			continue
		}
		value := s.additionalFieldValue(field, in)
		headers[field.Name] = s.deps.Template.Substitute(value, in.Credentials, in.Variables)
	}
	return headers, nil
}

// additionalFieldValue resolves a declared header field. Admin-filled fields
// use their stored default. User-filled fields resolve from credentials or
// variables, falling back to the default and finally to an empty string;
// existing provider configurations rely on optional headers staying
// permissive, so a missing value is not an error.
func (s *basicAuthStrategy) additionalFieldValue(field models.AdditionalField, in BuildInput) string {
	if field.FilledBy == "admin" {
		return field.DefaultValue
	}
	if v, ok := in.Credentials[field.Name]; ok && v != "" {
		return v
	}
	if v, ok := in.Variables[field.Name]; ok && v != "" {
		return v
	}
	if field.DefaultValue != "" {
		return field.DefaultValue
	}
	s.deps.Logger.Debug("additional field unresolved, using empty value",
		logging.Component("auth"), logging.Header(field.Name))
	return ""
}
