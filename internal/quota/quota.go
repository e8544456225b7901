// Package quota holds the pure quota checks. Both functions read snapshots
// only; enforcement of the counters themselves lives in the guarded database
// updates (keys.Repository.RecordUsage, auth.Repository.AddMonthlyChars).
package quota

import (
	"time"

	"github.com/odiadev/tts-gateway/internal/models"
)

// AllowRequest reports whether the key has lifetime request quota left.
// A total_quota of zero means unlimited.
func AllowRequest(key *models.APIKey) bool {
	return key.TotalQuota == 0 || key.UsageCount < key.TotalQuota
}

// MonthCharsUsed returns the user's character usage for the month containing
// now. A stale month anchor means the stored counter belongs to a previous
// billing month and counts as zero. Months are compared as calendar strings;
// elapsed-time arithmetic would drift because months have no fixed length.
func MonthCharsUsed(user *models.User, now time.Time) int64 {
	if user.MonthAnchor != models.MonthKey(now) {
		return 0
	}
	return user.CharsUsedMonth
}

// AllowCharacters reports whether synthesizing requested characters fits in
// the user's plan for the current month.
func AllowCharacters(user *models.User, plan models.Plan, requested int, now time.Time) bool {
	return MonthCharsUsed(user, now)+int64(requested) <= plan.MonthlyCharacters
}
