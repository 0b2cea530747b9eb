package repository

import (
	"context"
	"time"

	"counseling/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

type slotModel struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	StartTS     time.Time `gorm:"column:start_ts;not null;index:idx_slots_active_start,priority:2"`
	EndTS       time.Time `gorm:"column:end_ts;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:false;index:idx_slots_active_start,priority:1"`
	Note        *string   `gorm:"column:note"`
	CounselorID string    `gorm:"column:counselor_id;type:varchar(36);not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (slotModel) TableName() string { return "availability_slots" }

func toDomainSlot(m slotModel) *domain.Slot {
	return &domain.Slot{
		ID:          m.ID,
		StartTS:     m.StartTS.UTC(),
		EndTS:       m.EndTS.UTC(),
		IsActive:    m.IsActive,
		Note:        m.Note,
		CounselorID: m.CounselorID,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func toSlotModel(s *domain.Slot) slotModel {
	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}
	return slotModel{
		ID:          id,
		StartTS:     s.StartTS.UTC(),
		EndTS:       s.EndTS.UTC(),
		IsActive:    s.IsActive,
		Note:        s.Note,
		CounselorID: s.CounselorID,
		CreatedAt:   s.CreatedAt.UTC(),
	}
}

func toDomainSlots(rows []slotModel) []domain.Slot {
	out := make([]domain.Slot, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainSlot(m))
	}
	return out
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.Slot) error {
	m := toSlotModel(s)
	// is_active carries a column default, so false must be written explicitly.
	if err := r.db.WithContext(ctx).Select("*").Create(&m).Error; err != nil {
		return translate(err)
	}
	*s = *toDomainSlot(m)
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	var m slotModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainSlot(m), nil
}

// ListBookable returns active slots starting strictly after now, earliest first.
func (r *SlotRepository) ListBookable(ctx context.Context, now time.Time) ([]domain.Slot, error) {
	var rows []slotModel
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_ts > ?", true, now.UTC()).
		Order("start_ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainSlots(rows), nil
}

// ListRecent returns up to limit slots, latest start first.
func (r *SlotRepository) ListRecent(ctx context.Context, limit int) ([]domain.Slot, error) {
	var rows []slotModel
	err := r.db.WithContext(ctx).
		Order("start_ts DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainSlots(rows), nil
}

// SetActive is idempotent; it returns domain.ErrNotFound only when no slot has the id.
func (r *SlotRepository) SetActive(ctx context.Context, id string, active bool) error {
	tx := r.db.WithContext(ctx).
		Model(&slotModel{}).
		Where("id = ?", id).
		Update("is_active", active)
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&slotModel{})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
