package admin

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"counseling/internal/domain"
)

const (
	listLimit     = 100
	maxNoteLength = 2000
)

// Paths whose rendered views depend on slot data.
var slotViews = []string{"/booking", "/admin/slots"}

type Service struct {
	slots     SlotRepository
	policy    *Policy
	refresher Refresher
	input     *time.Location
}

func NewService(slots SlotRepository, policy *Policy, refresher Refresher, input *time.Location) *Service {
	if input == nil {
		input = time.UTC
	}
	return &Service{
		slots:     slots,
		policy:    policy,
		refresher: refresher,
		input:     input,
	}
}

func (s *Service) Policy() *Policy { return s.policy }

// CreateSlot validates in order: caller, date-times, range. New slots start inactive.
func (s *Service) CreateSlot(ctx context.Context, in CreateSlotInput, callerID string) (*domain.Slot, error) {
	if err := s.policy.Authorize(callerID); err != nil {
		return nil, err
	}

	loc, err := resolveLocation(in.TimeZone, s.input)
	if err != nil {
		return nil, err
	}
	start, err := ParseLocal(in.Start, loc)
	if err != nil {
		return nil, err
	}
	end, err := ParseLocal(in.End, loc)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, domain.ErrInvalidRange
	}

	slot := &domain.Slot{
		StartTS:     start,
		EndTS:       end,
		IsActive:    false,
		CounselorID: callerID,
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		if utf8.RuneCountInString(note) > maxNoteLength {
			return nil, fmt.Errorf("%w: note longer than %d characters", domain.ErrInvalidInput, maxNoteLength)
		}
		slot.Note = &note
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, domain.WrapStore("create slot", err)
	}

	s.revalidate(ctx)
	return slot, nil
}

// SetSlotActive is idempotent: repeating the same value changes nothing.
func (s *Service) SetSlotActive(ctx context.Context, slotID string, active bool, callerID string) error {
	if err := s.policy.Authorize(callerID); err != nil {
		return err
	}
	if strings.TrimSpace(slotID) == "" {
		return domain.ErrInvalidInput
	}

	if err := s.slots.SetActive(ctx, slotID, active); err != nil {
		return domain.WrapStore("set slot active", err)
	}

	s.revalidate(ctx)
	return nil
}

// DeleteSlot removes the slot permanently. Reservations that still reference
// it make the store refuse, which surfaces as a StoreError.
func (s *Service) DeleteSlot(ctx context.Context, slotID string, callerID string) error {
	if err := s.policy.Authorize(callerID); err != nil {
		return err
	}
	if strings.TrimSpace(slotID) == "" {
		return domain.ErrInvalidInput
	}

	if err := s.slots.Delete(ctx, slotID); err != nil {
		return domain.WrapStore("delete slot", err)
	}

	s.revalidate(ctx)
	return nil
}

// ListSlots returns the most recent slots by start time, newest first.
func (s *Service) ListSlots(ctx context.Context, callerID string) ([]domain.Slot, error) {
	if err := s.policy.Authorize(callerID); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListRecent(ctx, listLimit)
	if err != nil {
		return nil, domain.WrapStore("list slots", err)
	}
	return slots, nil
}

func (s *Service) revalidate(ctx context.Context) {
	if s.refresher != nil {
		s.refresher.Revalidate(ctx, slotViews...)
	}
}
