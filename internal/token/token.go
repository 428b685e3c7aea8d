// Package token computes OAuth2 token expiry state.
package token

import (
	"fmt"
	"time"

	"github.com/kpreslar/connectrix/internal/models"
)

// ExpiryBuffer is subtracted from the stored expiry so a token that would
// expire mid-flight is treated as already expired.
const ExpiryBuffer = 60 * time.Second

// ExpiryStatus is the result of checking a stored token record.
type ExpiryStatus struct {
	Expired   bool
	ExpiresAt time.Time
	Remaining time.Duration
	Message   string
}

// CheckExpiry reports whether the stored token is expired. A nil record or a
// record without an expiry timestamp is reported as not expired; the caller
// must treat that as "unknown, assume valid".
func CheckExpiry(rec *models.StoredTokenRecord) ExpiryStatus {
	return checkExpiryAt(rec, time.Now())
}

func checkExpiryAt(rec *models.StoredTokenRecord, now time.Time) ExpiryStatus {
	if rec == nil || rec.ExpiresAt.IsZero() {
		return ExpiryStatus{Message: "no expiry recorded, assuming valid"}
	}

	remaining := rec.ExpiresAt.Sub(now)
	if remaining <= ExpiryBuffer {
		return ExpiryStatus{
			Expired:   true,
			ExpiresAt: rec.ExpiresAt,
			Remaining: remaining,
			Message:   "access token expired",
		}
	}
	return ExpiryStatus{
		ExpiresAt: rec.ExpiresAt,
		Remaining: remaining,
		Message:   fmt.Sprintf("token valid for %s", remaining.Round(time.Second)),
	}
}

// ExpiryFromExpiresIn computes the absolute expiry timestamp for an
// expires_in duration (seconds) at the moment of issuance or refresh.
func ExpiryFromExpiresIn(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
