package catalog

import "github.com/kpreslar/connectrix/internal/models"

// MergeConfig produces the effective configuration for a call: every field
// in defaults that declares a default value, overlaid with every key present
// in overrides. Overrides always win, including explicit falsy values.
func MergeConfig(defaults map[string]models.FieldSpec, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for name, spec := range defaults {
		if spec.Default != nil {
			merged[name] = spec.Default
		}
	}
	for name, value := range overrides {
		merged[name] = value
	}
	return merged
}
