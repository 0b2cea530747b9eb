package repository

import (
	"context"
	"time"

	"counseling/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type reservationModel struct {
	ID        string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	SlotID    string     `gorm:"column:slot_id;type:varchar(36);not null;index"`
	UserID    string     `gorm:"column:user_id;type:varchar(36);not null;index"`
	Status    string     `gorm:"column:status;type:varchar(16);not null"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	Slot      *slotModel `gorm:"foreignKey:SlotID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (reservationModel) TableName() string { return "reservations" }

func toDomainReservation(m reservationModel) (*domain.Reservation, error) {
	status := domain.ReservationStatus(m.Status)
	if !status.Valid() {
		return nil, domain.ErrSchema
	}
	r := &domain.Reservation{
		ID:        m.ID,
		SlotID:    m.SlotID,
		UserID:    m.UserID,
		Status:    status,
		CreatedAt: m.CreatedAt.UTC(),
	}
	if m.Slot != nil {
		r.Slot = toDomainSlot(*m.Slot)
	}
	return r, nil
}

func toReservationModel(r *domain.Reservation) reservationModel {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return reservationModel{
		ID:        id,
		SlotID:    r.SlotID,
		UserID:    r.UserID,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

// Create inserts a reservation. A second booked row for the same slot
// violates the partial unique index and yields domain.ErrConflict.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	m := toReservationModel(res)
	if err := r.db.WithContext(ctx).Omit("Slot").Create(&m).Error; err != nil {
		return translate(err)
	}
	out, err := toDomainReservation(m)
	if err != nil {
		return err
	}
	*res = *out
	return nil
}

// GetForUser loads a reservation owned by userID together with its slot.
// Reservations owned by someone else are reported as domain.ErrNotFound.
func (r *ReservationRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Reservation, error) {
	var m reservationModel
	err := r.db.WithContext(ctx).
		Preload("Slot").
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainReservation(m)
}

// ListByUser returns the user's reservations newest first, each with its slot when it still exists.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	var rows []reservationModel
	err := r.db.WithContext(ctx).
		Preload("Slot").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		res, err := toDomainReservation(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, nil
}

// CancelBooked flips a booked reservation to cancelled. The update is guarded
// by owner and current status, so it reports false when nothing changed.
func (r *ReservationRepository) CancelBooked(ctx context.Context, id, userID string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, string(domain.ReservationBooked)).
		Update("status", string(domain.ReservationCancelled))
	if tx.Error != nil {
		return false, translate(tx.Error)
	}
	return tx.RowsAffected == 1, nil
}
