// Package catalog holds the static auth-type definitions and the config
// merge used at call time.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kpreslar/connectrix/internal/models"
)

//go:embed authtypes.json
var builtinFS embed.FS

// Catalog is an immutable registry of auth-type definitions keyed by scheme.
// It is constructed once at startup and passed to the components that need
// it; there is no package-level instance.
type Catalog struct {
	defs map[string]*models.AuthTypeDefinition
}

// New builds a catalog from explicit definitions.
func New(defs []models.AuthTypeDefinition) *Catalog {
	c := &Catalog{defs: make(map[string]*models.AuthTypeDefinition, len(defs))}
	for i := range defs {
		def := defs[i]
		c.defs[def.SchemeKey] = &def
	}
	return c
}

// Load parses the embedded built-in auth-type definitions.
func Load() (*Catalog, error) {
	raw, err := builtinFS.ReadFile("authtypes.json")
	if err != nil {
		return nil, fmt.Errorf("read builtin auth types: %w", err)
	}

	var doc struct {
		AuthTypes []models.AuthTypeDefinition `json:"auth_types"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse builtin auth types: %w", err)
	}
	if len(doc.AuthTypes) == 0 {
		return nil, fmt.Errorf("builtin auth types: empty catalog")
	}
	return New(doc.AuthTypes), nil
}

// Get returns the definition for a scheme key.
func (c *Catalog) Get(schemeKey string) (*models.AuthTypeDefinition, bool) {
	def, ok := c.defs[schemeKey]
	return def, ok
}

// Schemes returns the known scheme keys, sorted.
func (c *Catalog) Schemes() []string {
	keys := make([]string, 0, len(c.defs))
	for k := range c.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
