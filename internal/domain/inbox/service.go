package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	notifs Repository
}

func NewService(notifs Repository) *Service {
	return &Service{notifs: notifs}
}

// Notify appends a notification to the user's inbox.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, refID *uuid.UUID) (*Notification, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	n := &Notification{UserID: userID, Kind: kind, Title: title, Body: body, RefID: refID}
	if err := s.notifs.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.notifs.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifs.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.notifs.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notifs.MarkAllRead(ctx, userID)
}
