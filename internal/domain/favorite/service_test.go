package favorite

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type favKey struct {
	user     uuid.UUID
	itemType string
	item     uuid.UUID
}

type mockFavRepo struct {
	favs map[favKey]*Favorite
}

func newMockFavRepo() *mockFavRepo {
	return &mockFavRepo{favs: make(map[favKey]*Favorite)}
}

func (m *mockFavRepo) Add(_ context.Context, f *Favorite) error {
	k := favKey{f.UserID, f.ItemType, f.ItemID}
	if _, ok := m.favs[k]; ok {
		return nil
	}
	f.ID = uuid.New()
	m.favs[k] = f
	return nil
}

func (m *mockFavRepo) Remove(_ context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) error {
	delete(m.favs, favKey{userID, itemType, itemID})
	return nil
}

func (m *mockFavRepo) List(_ context.Context, userID uuid.UUID, itemType string) ([]*Favorite, error) {
	var out []*Favorite
	for k, f := range m.favs {
		if k.user == userID && (itemType == "" || k.itemType == itemType) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockFavRepo) Exists(_ context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) (bool, error) {
	_, ok := m.favs[favKey{userID, itemType, itemID}]
	return ok, nil
}

func TestAdd_Idempotent(t *testing.T) {
	svc := NewService(newMockFavRepo())
	userID, productID := uuid.New(), uuid.New()

	if _, err := svc.Add(context.Background(), userID, TypeProduct, productID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := svc.Add(context.Background(), userID, TypeProduct, productID); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	favs, _ := svc.List(context.Background(), userID, "")
	if len(favs) != 1 {
		t.Errorf("expected 1 favorite after double add, got %d", len(favs))
	}
}

func TestAdd_RejectsUnknownType(t *testing.T) {
	svc := NewService(newMockFavRepo())
	if _, err := svc.Add(context.Background(), uuid.New(), "pharmacy", uuid.New()); err == nil {
		t.Error("expected rejection of unknown item type")
	}
}

func TestList_FilterByType(t *testing.T) {
	svc := NewService(newMockFavRepo())
	userID := uuid.New()

	svc.Add(context.Background(), userID, TypeProduct, uuid.New())
	svc.Add(context.Background(), userID, TypeProduct, uuid.New())
	svc.Add(context.Background(), userID, TypeDoctor, uuid.New())

	products, _ := svc.List(context.Background(), userID, TypeProduct)
	if len(products) != 2 {
		t.Errorf("expected 2 product favorites, got %d", len(products))
	}
	doctors, _ := svc.List(context.Background(), userID, TypeDoctor)
	if len(doctors) != 1 {
		t.Errorf("expected 1 doctor favorite, got %d", len(doctors))
	}
	all, _ := svc.List(context.Background(), userID, "")
	if len(all) != 3 {
		t.Errorf("expected 3 favorites, got %d", len(all))
	}
}

func TestRemove(t *testing.T) {
	svc := NewService(newMockFavRepo())
	userID, productID := uuid.New(), uuid.New()

	svc.Add(context.Background(), userID, TypeProduct, productID)
	if err := svc.Remove(context.Background(), userID, TypeProduct, productID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	is, _ := svc.IsFavorite(context.Background(), userID, TypeProduct, productID)
	if is {
		t.Error("favorite survived removal")
	}
}
