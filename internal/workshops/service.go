package workshops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communityhub/internal/notifications"
)

// Join failure modes checked before any write happens.
var (
	ErrExpired       = errors.New("workshop already ended")
	ErrFull          = errors.New("workshop is full")
	ErrAlreadyJoined = errors.New("already joined")
)

// Service runs workshop workflows on top of the repository.
type Service struct {
	repo     *Repository
	notifier *notifications.Notifier
}

// NewService creates a workshop service.
func NewService(repo *Repository, notifier *notifications.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create validates and inserts a workshop.
func (s *Service) Create(ctx context.Context, w Workshop) (Workshop, error) {
	if w.Title == "" {
		return Workshop{}, fmt.Errorf("title required")
	}
	if !w.Org.Valid() {
		return Workshop{}, fmt.Errorf("unknown organization %q", w.Org)
	}
	if w.Date.IsZero() {
		return Workshop{}, fmt.Errorf("date required")
	}
	if w.SeatLimit < 0 {
		return Workshop{}, fmt.Errorf("seat limit cannot be negative")
	}
	return s.repo.Create(ctx, w)
}

// Update validates and rewrites a workshop.
func (s *Service) Update(ctx context.Context, w Workshop) error {
	if !w.Org.Valid() {
		return fmt.Errorf("unknown organization %q", w.Org)
	}
	if w.SeatLimit < 0 {
		return fmt.Errorf("seat limit cannot be negative")
	}
	return s.repo.Update(ctx, w)
}

// Join validates locally, then inserts the participation row and queues a
// confirmation notification. All checks run before any write: an expired or
// full workshop is rejected without touching the store, and the unique
// constraint keeps a concurrent duplicate join from writing a second row.
func (s *Service) Join(ctx context.Context, workshopID string, p Participant, now time.Time) error {
	if p.UserID == "" {
		return fmt.Errorf("user required")
	}

	w, err := s.repo.Get(ctx, workshopID)
	if err != nil {
		return err
	}
	if w.Date.Before(now) {
		return ErrExpired
	}
	if w.SeatLimit > 0 {
		count, err := s.repo.CountParticipants(ctx, workshopID)
		if err != nil {
			return err
		}
		if count >= w.SeatLimit {
			return ErrFull
		}
	}

	inserted, err := s.repo.AddParticipant(ctx, workshopID, p)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyJoined
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("You're in! See you at %s on %s.", w.Title, w.Date.Format("Jan 2, 2006"))
		_ = s.notifier.Send(ctx, p.UserID, notifications.TypeSuccess, msg)
	}
	return nil
}

// Leave removes the user's participation row.
func (s *Service) Leave(ctx context.Context, workshopID, userID string) error {
	if _, err := s.repo.Get(ctx, workshopID); err != nil {
		return err
	}
	return s.repo.RemoveParticipant(ctx, workshopID, userID)
}
