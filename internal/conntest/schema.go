package conntest

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/template"
)

// SchemaIssue is one problem found while validating an auth schema.
type SchemaIssue struct {
	AuthMethodID string `json:"auth_method_id"`
	Field        string `json:"field"`
	Placeholder  string `json:"placeholder"`
	Message      string `json:"message"`
	Suggestion   string `json:"suggestion,omitempty"`
}

// SchemaValidation is the result of static schema validation, surfaced to
// the admin UI at schema-authoring time.
type SchemaValidation struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// Err folds the issues into a single error, or nil when the schema is valid.
func (v *SchemaValidation) Err() error {
	if v.Valid {
		return nil
	}
	var result *multierror.Error
	for _, issue := range v.Issues {
		result = multierror.Append(result, fmt.Errorf("%s: %s", issue.AuthMethodID, issue.Message))
	}
	return result.ErrorOrNil()
}

// ValidateAuthSchema checks that every {{var}} referenced in an auth
// method's URL-bearing fields has a corresponding additional field, with
// "did you mean" suggestions for near misses.
func ValidateAuthSchema(schema *models.AuthSchema) *SchemaValidation {
	result := &SchemaValidation{Valid: true}

	for i := range schema.AuthMethods {
		method := &schema.AuthMethods[i]

		declared := make(map[string]struct{}, len(method.AdditionalFields))
		var names []string
		for _, field := range method.AdditionalFields {
			declared[field.Name] = struct{}{}
			names = append(names, field.Name)
		}

		for field, value := range urlBearingFields(method) {
			for _, placeholder := range template.Placeholders(value) {
				if _, ok := declared[placeholder]; ok {
					continue
				}
				issue := SchemaIssue{
					AuthMethodID: method.ID,
					Field:        field,
					Placeholder:  placeholder,
					Message: fmt.Sprintf("placeholder {{%s}} in %s has no matching additional field",
						placeholder, field),
				}
				if suggestion := closestName(placeholder, names); suggestion != "" {
					issue.Suggestion = suggestion
					issue.Message += fmt.Sprintf(" (did you mean %q?)", suggestion)
				}
				result.Valid = false
				result.Issues = append(result.Issues, issue)
			}
		}
	}
	return result
}

// urlBearingFields collects the string-valued fields of a method whose key
// names them as URLs, from both the auth config and the test config.
func urlBearingFields(method *models.AuthMethodConfig) map[string]string {
	fields := make(map[string]string)
	collect := func(cfg map[string]any) {
		for key, value := range cfg {
			if !strings.Contains(strings.ToLower(key), "url") {
				continue
			}
			if s, ok := value.(string); ok && s != "" {
				fields[key] = s
			}
		}
	}
	collect(method.Config)
	collect(method.TestConfig)
	return fields
}

// closestName suggests the declared name most similar to the placeholder,
// using longest-common-substring overlap. Below half overlap no suggestion
// is made.
func closestName(placeholder string, names []string) string {
	best := ""
	bestScore := 0.0
	for _, name := range names {
		longer := len(name)
		if len(placeholder) > longer {
			longer = len(placeholder)
		}
		if longer == 0 {
			continue
		}
		score := float64(longestCommonSubstring(strings.ToLower(placeholder), strings.ToLower(name))) / float64(longer)
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore < 0.5 {
		return ""
	}
	return best
}

func longestCommonSubstring(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	longest := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > longest {
					longest = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return longest
}
