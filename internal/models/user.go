package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"-"`
	Plan           string    `json:"plan"`
	CharsUsedMonth int64     `json:"chars_used_month"`
	MonthAnchor    string    `json:"month_anchor"` // YYYY-MM of the month CharsUsedMonth covers
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MonthKey formats t as the calendar-month anchor stored on users.
// Billing months are compared by string equality, not elapsed time.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
