package prescription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRxRepo struct {
	rx map[uuid.UUID]*Prescription
}

func newMockRxRepo() *mockRxRepo {
	return &mockRxRepo{rx: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRxRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	for _, it := range p.Items {
		it.ID = uuid.New()
		it.PrescriptionID = p.ID
	}
	m.rx[p.ID] = p
	return nil
}

func (m *mockRxRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.rx[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRxRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rx {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRxRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rx {
		if p.DoctorID == doctorID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRxRepo) SetStatus(_ context.Context, id uuid.UUID, status string, dispensedBy *uuid.UUID) error {
	p, ok := m.rx[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	if dispensedBy != nil {
		p.DispensedBy = dispensedBy
		now := time.Now()
		p.DispensedAt = &now
	}
	return nil
}

func issueInput() IssueInput {
	return IssueInput{
		PatientID: uuid.New(),
		Items: []*Item{{
			Medication:   "Amoxicillin 500mg",
			Dosage:       "1 capsule, 3x daily",
			DurationDays: 7,
		}},
	}
}

func TestIssue(t *testing.T) {
	svc := NewService(newMockRxRepo(), nil)
	doctorID := uuid.New()

	p, err := svc.Issue(context.Background(), doctorID, issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if p.Status != StatusActive {
		t.Errorf("expected active, got %s", p.Status)
	}
	if p.DoctorID != doctorID {
		t.Errorf("doctor not recorded")
	}
	if p.ExpiresAt.Before(time.Now().Add(89 * 24 * time.Hour)) {
		t.Errorf("unexpected expiry %v", p.ExpiresAt)
	}
}

func TestIssue_Validation(t *testing.T) {
	svc := NewService(newMockRxRepo(), nil)
	doctorID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*IssueInput)
	}{
		{"missing patient", func(in *IssueInput) { in.PatientID = uuid.Nil }},
		{"no items", func(in *IssueInput) { in.Items = nil }},
		{"missing medication", func(in *IssueInput) { in.Items[0].Medication = "" }},
		{"missing dosage", func(in *IssueInput) { in.Items[0].Dosage = "" }},
		{"zero duration", func(in *IssueInput) { in.Items[0].DurationDays = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := issueInput()
			tc.mutate(&in)
			if _, err := svc.Issue(context.Background(), doctorID, in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDispense(t *testing.T) {
	svc := NewService(newMockRxRepo(), nil)
	pharmacyID := uuid.New()

	p, err := svc.Issue(context.Background(), uuid.New(), issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	p, err = svc.Dispense(context.Background(), p.ID, pharmacyID)
	if err != nil {
		t.Fatalf("Dispense failed: %v", err)
	}
	if p.Status != StatusDispensed {
		t.Errorf("expected dispensed, got %s", p.Status)
	}
	if p.DispensedBy == nil || *p.DispensedBy != pharmacyID {
		t.Error("dispensing pharmacy not recorded")
	}

	if _, err := svc.Dispense(context.Background(), p.ID, pharmacyID); !errors.Is(err, ErrAlreadyDispensed) {
		t.Errorf("expected ErrAlreadyDispensed, got %v", err)
	}
}

func TestDispense_Expired(t *testing.T) {
	repo := newMockRxRepo()
	svc := NewService(repo, nil)

	p, err := svc.Issue(context.Background(), uuid.New(), issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Jump the clock past the validity window.
	svc.now = func() time.Time { return time.Now().Add(DefaultValidity + time.Hour) }

	if _, err := svc.Dispense(context.Background(), p.ID, uuid.New()); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if repo.rx[p.ID].Status != StatusExpired {
		t.Error("expired prescription should be marked expired on read")
	}
}

func TestCancel(t *testing.T) {
	svc := NewService(newMockRxRepo(), nil)
	doctorID := uuid.New()

	p, err := svc.Issue(context.Background(), doctorID, issueInput())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), p.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("another doctor must not cancel, got %v", err)
	}

	p, err = svc.Cancel(context.Background(), p.ID, doctorID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if p.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", p.Status)
	}
	if _, err := svc.Dispense(context.Background(), p.ID, uuid.New()); err == nil {
		t.Error("cancelled prescription must not dispense")
	}
}
