// Package template resolves {{name}} placeholders against credential and
// variable maps.
package template

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/secrets"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.-]*)\s*\}\}`)

// Decryptor is the slice of the encryption service substitution needs.
type Decryptor interface {
	Decrypt(value string) string
}

// Engine substitutes placeholders in templates. Credentials take precedence
// over variables on key collision.
type Engine struct {
	decryptor Decryptor
	logger    *zap.Logger
}

// New creates a substitution engine.
func New(decryptor Decryptor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{decryptor: decryptor, logger: logger}
}

// Substitute resolves every {{name}} placeholder in the template. Lookup
// order is credentials first, then variables. An unresolved placeholder is
// left in the output verbatim and logged; substitution never fails. Resolved
// values that look encrypted are opportunistically decrypted, falling back to
// the raw value if decryption does not apply.
func (e *Engine) Substitute(template string, credentials, variables map[string]string) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]

		value, ok := credentials[name]
		if !ok {
			value, ok = variables[name]
		}
		if !ok {
			e.logger.Warn("unresolved template placeholder",
				logging.Component("template"), logging.Placeholder(name))
			return match
		}

		if e.decryptor != nil && secrets.LooksEncrypted(value) {
			value = e.decryptor.Decrypt(value)
		}
		return value
	})
}

// Placeholders returns the distinct placeholder names in the template, in
// order of first appearance.
func Placeholders(template string) []string {
	if !strings.Contains(template, "{{") {
		return nil
	}

	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
