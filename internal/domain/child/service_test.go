package child

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kidsgourmet/api/pkg/apperr"
)

// =========== Mock Repository ===========

type mockRepo struct {
	store map[uuid.UUID]*Profile
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Profile)}
}

func (m *mockRepo) Create(_ context.Context, p *Profile) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Profile, int, error) {
	var result []*Profile
	for _, p := range m.store {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) Update(_ context.Context, p *Profile) error {
	if _, ok := m.store[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

// =========== Tests ===========

func TestCreateProfile(t *testing.T) {
	svc := NewService(newMockRepo())
	userID := uuid.New()

	gender := "female"
	p, err := svc.Create(context.Background(), userID, CreateInput{
		Name:      "Elif",
		BirthDate: "2024-03-15",
		Gender:    &gender,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if p.UserID != userID {
		t.Error("profile not bound to owner")
	}
	if !p.BirthDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("birth date = %v", p.BirthDate)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	userID := uuid.New()
	bad := "unknown"

	cases := []struct {
		name string
		in   CreateInput
		code string
	}{
		{"empty name", CreateInput{Name: "  ", BirthDate: "2024-01-01"}, "name_required"},
		{"bad date format", CreateInput{Name: "Ali", BirthDate: "15/03/2024"}, "invalid_birth_date"},
		{"future birth date", CreateInput{Name: "Ali", BirthDate: "2999-01-01"}, "invalid_birth_date"},
		{"bad gender", CreateInput{Name: "Ali", BirthDate: "2024-01-01", Gender: &bad}, "invalid_gender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tc.in)
			ae := apperr.From(err)
			if ae == nil {
				t.Fatalf("expected typed error, got %v", err)
			}
			if ae.Kind != apperr.KindValidation || ae.Code != tc.code {
				t.Errorf("got kind=%s code=%s, want validation/%s", ae.Kind, ae.Code, tc.code)
			}
		})
	}
}

func TestGetProfileOwnership(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	owner := uuid.New()

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Can", BirthDate: "2023-06-01"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, p.ID); err != nil {
		t.Errorf("owner should read own profile: %v", err)
	}

	// another user must get the same not_found as a missing id
	_, err = svc.Get(context.Background(), uuid.New(), p.ID)
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindNotFound {
		t.Errorf("expected not_found for foreign profile, got %v", err)
	}

	_, err = svc.Get(context.Background(), owner, uuid.New())
	ae = apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindNotFound {
		t.Errorf("expected not_found for missing profile, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	owner := uuid.New()

	p, _ := svc.Create(context.Background(), owner, CreateInput{Name: "Can", BirthDate: "2023-06-01"})

	updated, err := svc.Update(context.Background(), owner, p.ID, CreateInput{Name: "Canan", BirthDate: "2023-06-02"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Canan" {
		t.Errorf("name = %q", updated.Name)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), p.ID, CreateInput{Name: "X", BirthDate: "2023-06-01"}); err == nil {
		t.Error("foreign user should not update profile")
	}
}

func TestDeleteProfile(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	owner := uuid.New()

	p, _ := svc.Create(context.Background(), owner, CreateInput{Name: "Can", BirthDate: "2023-06-01"})

	if err := svc.Delete(context.Background(), uuid.New(), p.ID); err == nil {
		t.Error("foreign user should not delete profile")
	}
	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, p.ID); err == nil {
		t.Error("profile should be gone after delete")
	}
}
