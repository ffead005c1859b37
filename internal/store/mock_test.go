package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"beautybook/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetProfessional(ctx context.Context, id string) (*model.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Professional), args.Error(1)
}

func (m *mockStore) ListProfessionals(ctx context.Context) ([]model.Professional, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Professional), args.Error(1)
}

func (m *mockStore) SaveProfessional(ctx context.Context, p *model.Professional) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) UpdateWeeklySchedule(ctx context.Context, professionalID string, ws model.WeeklySchedule) error {
	return m.Called(ctx, professionalID, ws).Error(0)
}

func (m *mockStore) UpdateExceptions(ctx context.Context, professionalID string, list []model.ScheduleException) error {
	return m.Called(ctx, professionalID, list).Error(0)
}

func (m *mockStore) GetTreatment(ctx context.Context, id string) (*model.Treatment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Treatment), args.Error(1)
}

func (m *mockStore) ListTreatments(ctx context.Context) ([]model.Treatment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Treatment), args.Error(1)
}

func (m *mockStore) SaveTreatment(ctx context.Context, t *model.Treatment) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockStore) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockStore) ListAppointments(ctx context.Context, professionalID, date string) ([]model.Appointment, error) {
	args := m.Called(ctx, professionalID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) RescheduleAppointment(ctx context.Context, a *model.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockStore) DeleteAppointment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
