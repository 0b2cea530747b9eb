package domain

import "time"

type ReservationStatus string

const (
	ReservationBooked    ReservationStatus = "booked"
	ReservationCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	return s == ReservationBooked || s == ReservationCancelled
}

// Reservation records one user's claim on one slot.
// Slot is populated by read paths that join the slot; it is nil on writes.
type Reservation struct {
	ID        string            `json:"id"`
	SlotID    string            `json:"slot_id"`
	UserID    string            `json:"user_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Slot      *Slot             `json:"slot,omitempty"`
}

// Cancellable reports whether the owner may still cancel at now.
// A reservation without its slot is never cancellable.
func (r Reservation) Cancellable(now time.Time) bool {
	return r.Status == ReservationBooked && r.Slot != nil && r.Slot.StartTS.After(now)
}
