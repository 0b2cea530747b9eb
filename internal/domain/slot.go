package domain

import "time"

// Slot is a bookable time window owned by an administrator.
// StartTS and EndTS are always UTC instants.
type Slot struct {
	ID          string    `json:"id"`
	StartTS     time.Time `json:"start_ts"`
	EndTS       time.Time `json:"end_ts"`
	IsActive    bool      `json:"is_active"`
	Note        *string   `json:"note,omitempty"`
	CounselorID string    `json:"counselor_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bookable reports whether the slot may be reserved at now.
func (s Slot) Bookable(now time.Time) bool {
	return s.IsActive && s.StartTS.After(now)
}

// Started reports whether the slot start is at or before now.
func (s Slot) Started(now time.Time) bool {
	return !s.StartTS.After(now)
}

func (s Slot) Duration() time.Duration {
	return s.EndTS.Sub(s.StartTS)
}
