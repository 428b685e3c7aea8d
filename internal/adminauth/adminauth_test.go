package adminauth

import (
	"strings"
	"testing"
)

func TestGenerateAndVerify(t *testing.T) {
	displayKey, prefix, hash, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}

	if !strings.HasPrefix(displayKey, "connectrix_"+prefix+"_") {
		t.Errorf("display key %q does not embed prefix %q", displayKey, prefix)
	}
	if !VerifyAPIKey(displayKey, hash) {
		t.Error("freshly generated key failed verification")
	}
	if VerifyAPIKey(displayKey+"x", hash) {
		t.Error("tampered key verified")
	}
	if VerifyAPIKey(displayKey, HashSecret("other")) {
		t.Error("key verified against wrong hash")
	}
}

func TestParseAPIKey(t *testing.T) {
	_, _, err := ParseAPIKey("nope")
	if err != ErrInvalidKeyFormat {
		t.Errorf("err = %v, want ErrInvalidKeyFormat", err)
	}
	_, _, err = ParseAPIKey("connectrix_short_secret")
	if err != ErrInvalidKeyFormat {
		t.Errorf("short prefix: err = %v, want ErrInvalidKeyFormat", err)
	}
	_, _, err = ParseAPIKey("connectrix_UPPERCASE1234_secret")
	if err != ErrInvalidKeyFormat {
		t.Errorf("bad charset: err = %v, want ErrInvalidKeyFormat", err)
	}

	prefix, secret, err := ParseAPIKey("connectrix_abcdef123456_the_secret")
	if err != nil {
		t.Fatalf("ParseAPIKey failed: %v", err)
	}
	if prefix != "abcdef123456" || secret != "the_secret" {
		t.Errorf("parsed %q / %q", prefix, secret)
	}
}
