package favorite

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	favs Repository
}

func NewService(favs Repository) *Service {
	return &Service{favs: favs}
}

// Add favorites an item for the user. Adding twice is a no-op.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) (*Favorite, error) {
	if err := ValidType(itemType); err != nil {
		return nil, err
	}
	f := &Favorite{UserID: userID, ItemType: itemType, ItemID: itemID}
	if err := s.favs.Add(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Remove(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) error {
	if err := ValidType(itemType); err != nil {
		return err
	}
	return s.favs.Remove(ctx, userID, itemType, itemID)
}

// List returns the user's favorites, optionally narrowed to one type.
func (s *Service) List(ctx context.Context, userID uuid.UUID, itemType string) ([]*Favorite, error) {
	if itemType != "" {
		if err := ValidType(itemType); err != nil {
			return nil, err
		}
	}
	favs, err := s.favs.List(ctx, userID, itemType)
	if err != nil {
		return nil, err
	}
	if favs == nil {
		favs = []*Favorite{}
	}
	return favs, nil
}

func (s *Service) IsFavorite(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) (bool, error) {
	return s.favs.Exists(ctx, userID, itemType, itemID)
}
