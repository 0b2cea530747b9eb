package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// BookedSlotIndex allows at most one booked reservation per slot.
// Partial indexes are supported by both Postgres and SQLite.
const BookedSlotIndex = "idx_reservations_slot_booked"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userModel{}, &slotModel{}, &reservationModel{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON reservations (slot_id) WHERE status = 'booked'",
		BookedSlotIndex,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create %s: %w", BookedSlotIndex, err)
	}
	return nil
}
