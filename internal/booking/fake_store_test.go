package booking

import (
	"context"
	"sort"
	"sync"

	"beautybook/internal/conflict"
	"beautybook/internal/model"
	"beautybook/internal/store"
)

// fakeStore keeps everything in maps and runs the conflict check under its
// mutex, like a transactional store would.
type fakeStore struct {
	mu            sync.Mutex
	professionals map[string]model.Professional
	treatments    map[string]model.Treatment
	appointments  map[string]model.Appointment

	// beforeWrite runs inside the critical section, before the check.
	beforeWrite func(s *fakeStore)
	listErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		professionals: map[string]model.Professional{},
		treatments:    map[string]model.Treatment{},
		appointments:  map[string]model.Appointment{},
	}
}

func (s *fakeStore) GetProfessional(_ context.Context, id string) (*model.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professionals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *fakeStore) ListProfessionals(context.Context) ([]model.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Professional, 0, len(s.professionals))
	for _, p := range s.professionals {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) SaveProfessional(_ context.Context, p *model.Professional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.professionals[p.ID] = *p
	return nil
}

func (s *fakeStore) UpdateWeeklySchedule(_ context.Context, id string, ws model.WeeklySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professionals[id]
	if !ok {
		return store.ErrNotFound
	}
	p.BaseSchedule = ws
	s.professionals[id] = p
	return nil
}

func (s *fakeStore) UpdateExceptions(_ context.Context, id string, list []model.ScheduleException) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professionals[id]
	if !ok {
		return store.ErrNotFound
	}
	p.ScheduleExceptions = list
	s.professionals[id] = p
	return nil
}

func (s *fakeStore) GetTreatment(_ context.Context, id string) (*model.Treatment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.treatments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *fakeStore) ListTreatments(context.Context) ([]model.Treatment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Treatment, 0, len(s.treatments))
	for _, t := range s.treatments {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) SaveTreatment(_ context.Context, t *model.Treatment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.treatments[t.ID] = *t
	return nil
}

func (s *fakeStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *fakeStore) ListAppointments(_ context.Context, professionalID, date string) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.dayLocked(professionalID, date), nil
}

func (s *fakeStore) dayLocked(professionalID, date string) []model.Appointment {
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.ProfessionalID == professionalID && a.Date == date {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

func (s *fakeStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeWrite != nil {
		s.beforeWrite(s)
	}
	if err := conflict.Check(s.dayLocked(a.ProfessionalID, a.Date), a.StartTime, a.Duration, ""); err != nil {
		return err
	}
	s.appointments[a.ID] = *a
	return nil
}

func (s *fakeStore) RescheduleAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; !ok {
		return store.ErrNotFound
	}
	if err := conflict.Check(s.dayLocked(a.ProfessionalID, a.Date), a.StartTime, a.Duration, a.ID); err != nil {
		return err
	}
	s.appointments[a.ID] = *a
	return nil
}

func (s *fakeStore) UpdateAppointmentStatus(_ context.Context, id string, status model.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	s.appointments[id] = a
	return nil
}

func (s *fakeStore) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }
