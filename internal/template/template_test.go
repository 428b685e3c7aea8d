package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpreslar/connectrix/internal/secrets"
)

func TestSubstituteNoPlaceholdersIsIdentity(t *testing.T) {
	e := New(nil, nil)

	for _, tmpl := range []string{"", "https://api.example.com/ping", "plain {text} with braces"} {
		assert.Equal(t, tmpl, e.Substitute(tmpl, nil, nil))
	}
}

func TestSubstituteCredentialsWinOverVariables(t *testing.T) {
	e := New(nil, nil)

	got := e.Substitute("{{host}}/{{path}}",
		map[string]string{"host": "cred-host"},
		map[string]string{"host": "var-host", "path": "v1"})
	assert.Equal(t, "cred-host/v1", got)
}

func TestSubstituteUnresolvedLeftVerbatim(t *testing.T) {
	e := New(nil, nil)

	got := e.Substitute("https://{{host}}/{{missing}}",
		nil, map[string]string{"host": "api.example.com"})
	assert.Equal(t, "https://api.example.com/{{missing}}", got)
}

func TestSubstituteWhitespaceInsidePlaceholder(t *testing.T) {
	e := New(nil, nil)

	got := e.Substitute("{{ host }}", nil, map[string]string{"host": "x.test"})
	assert.Equal(t, "x.test", got)
}

func TestSubstituteDecryptsEncryptedValues(t *testing.T) {
	svc := secrets.New("test-passphrase")
	sealed, err := svc.Encrypt("tenant-42")
	require.NoError(t, err)

	e := New(svc, nil)
	got := e.Substitute("https://{{tenant}}.example.com",
		map[string]string{"tenant": sealed}, nil)
	assert.Equal(t, "https://tenant-42.example.com", got)
}

func TestPlaceholders(t *testing.T) {
	assert.Nil(t, Placeholders("no placeholders here"))
	assert.Equal(t, []string{"host", "token"},
		Placeholders("https://{{host}}/v1?t={{token}}&again={{host}}"))
}
