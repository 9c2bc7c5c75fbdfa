package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caremarket/caremarket/internal/domain/schedule"
)

type mockApptRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockApptRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockApptRepo) ListActiveByDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID != doctorID || a.Status == StatusCancelled || a.Status == StatusNoShow {
			continue
		}
		if Overlaps(a.StartTime, a.EndTime, from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApptRepo) BookedStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	appts, err := m.ListActiveByDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	starts := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		starts = append(starts, a.StartTime)
	}
	return starts, nil
}

func (m *mockApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

type mockScheduleRepo struct {
	windows map[uuid.UUID][]*schedule.Window
}

func (m *mockScheduleRepo) ReplaceForDoctor(_ context.Context, doctorID uuid.UUID, windows []*schedule.Window) error {
	m.windows[doctorID] = windows
	return nil
}

func (m *mockScheduleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*schedule.Window, error) {
	return m.windows[doctorID], nil
}

type fixture struct {
	svc       *Service
	repo      *mockApptRepo
	patientID uuid.UUID
	doctorID  uuid.UUID
}

// newFixture gives the doctor a weekday window from 09:00 to 17:00 with
// 30 minute slots.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	doctorID := uuid.New()
	schedRepo := &mockScheduleRepo{windows: make(map[uuid.UUID][]*schedule.Window)}
	for wd := 0; wd < 7; wd++ {
		schedRepo.windows[doctorID] = append(schedRepo.windows[doctorID], &schedule.Window{
			DoctorID: doctorID, Weekday: wd, Start: "09:00", End: "17:00",
			SlotMinutes: 30, Enabled: true,
		})
	}

	repo := newMockApptRepo()
	return &fixture{
		svc:       NewService(repo, schedule.NewService(schedRepo, repo), nil),
		repo:      repo,
		patientID: uuid.New(),
		doctorID:  doctorID,
	}
}

// slotTomorrow returns tomorrow at the given clock time, on the fixture's
// slot grid.
func slotTomorrow(hour, minute int) time.Time {
	d := time.Now().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.Local)
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, slotTomorrow(10, 0), nil)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if !a.EndTime.Equal(a.StartTime.Add(30 * time.Minute)) {
		t.Errorf("expected 30 minute appointment, got %v..%v", a.StartTime, a.EndTime)
	}
}

func TestBook_PastTime(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	if _, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, past, nil); err == nil {
		t.Error("expected rejection of past start time")
	}
}

func TestBook_OutsideSchedule(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, slotTomorrow(7, 0), nil); !errors.Is(err, ErrOutsideSchedule) {
		t.Errorf("expected ErrOutsideSchedule before opening, got %v", err)
	}
	if _, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, slotTomorrow(10, 10), nil); !errors.Is(err, ErrOutsideSchedule) {
		t.Errorf("expected ErrOutsideSchedule off the slot grid, got %v", err)
	}
}

func TestBook_UnknownDoctor(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Book(context.Background(), f.patientID, uuid.New(), slotTomorrow(10, 0), nil); !errors.Is(err, ErrOutsideSchedule) {
		t.Errorf("expected ErrOutsideSchedule for doctor without schedule, got %v", err)
	}
}

func TestBook_Conflict(t *testing.T) {
	f := newFixture(t)
	start := slotTomorrow(10, 0)

	if _, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, start, nil); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	if _, err := f.svc.Book(context.Background(), uuid.New(), f.doctorID, start, nil); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

// staleCheckRepo reports every slot as free at check time, so uniqueness is
// only enforced at insert. This is the shape of two requests racing past the
// clash check before either row lands.
type staleCheckRepo struct {
	*mockApptRepo
}

func (r *staleCheckRepo) ListActiveByDoctorBetween(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*Appointment, error) {
	return nil, nil
}

func (r *staleCheckRepo) Create(ctx context.Context, a *Appointment) error {
	for _, existing := range r.appts {
		if existing.DoctorID == a.DoctorID && existing.StartTime.Equal(a.StartTime) &&
			existing.Status != StatusCancelled && existing.Status != StatusNoShow {
			return ErrSlotTaken
		}
	}
	return r.mockApptRepo.Create(ctx, a)
}

func TestBook_RacingBookingsSettledByStore(t *testing.T) {
	f := newFixture(t)
	repo := &staleCheckRepo{mockApptRepo: f.repo}
	svc := NewService(repo, schedule.NewService(&mockScheduleRepo{windows: map[uuid.UUID][]*schedule.Window{
		f.doctorID: {{DoctorID: f.doctorID, Weekday: int(slotTomorrow(10, 0).Weekday()),
			Start: "09:00", End: "17:00", SlotMinutes: 30, Enabled: true}},
	}}, repo), nil)
	start := slotTomorrow(10, 0)

	if _, err := svc.Book(context.Background(), f.patientID, f.doctorID, start, nil); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	if _, err := svc.Book(context.Background(), uuid.New(), f.doctorID, start, nil); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken from the store, got %v", err)
	}
	if len(f.repo.appts) != 1 {
		t.Errorf("expected a single stored appointment, got %d", len(f.repo.appts))
	}
}

func TestBook_RemovesSlotFromSchedule(t *testing.T) {
	f := newFixture(t)
	start := slotTomorrow(10, 0)

	if _, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, start, nil); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	slots, err := f.svc.schedules.SlotsFor(context.Background(), f.doctorID, start)
	if err != nil {
		t.Fatalf("SlotsFor failed: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected remaining free slots")
	}
	for _, s := range slots {
		if s.Start.Equal(start) {
			t.Errorf("booked slot %v still offered", start)
		}
	}
}

func TestBook_CancelledSlotIsFree(t *testing.T) {
	f := newFixture(t)
	start := slotTomorrow(10, 0)

	a, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, start, nil)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), a.ID, f.patientID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), uuid.New(), f.doctorID, start, nil); err != nil {
		t.Errorf("cancelled slot should be bookable again: %v", err)
	}
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, slotTomorrow(11, 0), nil)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusCompleted); err == nil {
		t.Error("pending must not jump straight to completed")
	}

	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusNoShow); err != nil {
		t.Fatalf("noshow failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed); err == nil {
		t.Error("noshow is terminal")
	}
}

func TestCancel_StrangerCannot(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Book(context.Background(), f.patientID, f.doctorID, slotTomorrow(9, 30), nil)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), a.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a stranger, got %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name         string
		bStart, bEnd time.Time
		want         bool
	}{
		{"identical", base, base.Add(30 * time.Minute), true},
		{"contained", base.Add(10 * time.Minute), base.Add(20 * time.Minute), true},
		{"straddles start", base.Add(-10 * time.Minute), base.Add(10 * time.Minute), true},
		{"touching before", base.Add(-30 * time.Minute), base, false},
		{"touching after", base.Add(30 * time.Minute), base.Add(time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(base, base.Add(30*time.Minute), tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}
