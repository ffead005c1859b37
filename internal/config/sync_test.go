package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook/internal/db"
	"beautybook/internal/lock"
	"beautybook/internal/model"
)

func TestSyncClinic(t *testing.T) {
	logger := zerolog.Nop()
	st, err := db.NewDB(filepath.Join(t.TempDir(), "sync.db"), &logger)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	// Left over from an earlier catalogue.
	require.NoError(t, st.SaveTreatment(ctx, &model.Treatment{ID: "waxing", Name: "Waxing", Duration: 30, Active: true}))
	require.NoError(t, st.SaveProfessional(ctx, &model.Professional{ID: "carla", Name: "Carla", Active: true}))
	// Anna already has a runtime exception on the holiday and one elsewhere.
	require.NoError(t, st.SaveProfessional(ctx, &model.Professional{
		ID: "anna", Name: "Anna", Active: true,
		ScheduleExceptions: []model.ScheduleException{
			{ID: "x1", Date: "2026-05-01", Type: model.ExceptionCustom, Blocks: []model.TimeBlock{{ID: "b", Start: "10:00", End: "12:00", Kind: model.BlockWork}}},
			{ID: "x2", Date: "2026-04-10", Type: model.ExceptionUnavailable, Blocks: []model.TimeBlock{}},
		},
	}))

	cfg, err := LoadClinicConfig(writeFile(t, t.TempDir(), "clinic.yaml", clinicYAML))
	require.NoError(t, err)
	locker := lock.NewLocal(time.Second)
	require.NoError(t, SyncClinic(ctx, st, locker, cfg, &logger))

	waxing, err := st.GetTreatment(ctx, "waxing")
	require.NoError(t, err)
	assert.False(t, waxing.Active)

	carla, err := st.GetProfessional(ctx, "carla")
	require.NoError(t, err)
	assert.False(t, carla.Active)

	anna, err := st.GetProfessional(ctx, "anna")
	require.NoError(t, err)
	assert.True(t, anna.Active)
	assert.Len(t, anna.BaseSchedule, 2)
	assert.Equal(t, []model.ProfessionalTreatment{{TreatmentID: "manicure", Price: 40}}, anna.AvailableTreatments)

	byDate := map[string]model.ScheduleException{}
	for _, ex := range anna.ScheduleExceptions {
		byDate[ex.Date] = ex
	}
	require.Len(t, byDate, 3)
	assert.Equal(t, "x1", byDate["2026-05-01"].ID, "explicit exception wins over holiday")
	assert.Equal(t, model.ExceptionUnavailable, byDate["2026-04-10"].Type)
	assert.Equal(t, model.ExceptionCustom, byDate["2026-03-16"].Type)

	bella, err := st.GetProfessional(ctx, "bella")
	require.NoError(t, err)
	assert.False(t, bella.Active)
	require.Len(t, bella.ScheduleExceptions, 1)
	assert.Equal(t, "holiday-2026-05-01", bella.ScheduleExceptions[0].ID)
	assert.Equal(t, model.ExceptionUnavailable, bella.ScheduleExceptions[0].Type)

	// A second sync is stable.
	require.NoError(t, SyncClinic(ctx, st, locker, cfg, &logger))
	bella, err = st.GetProfessional(ctx, "bella")
	require.NoError(t, err)
	assert.Len(t, bella.ScheduleExceptions, 1)
}

func TestSyncClinic_Nil(t *testing.T) {
	assert.Error(t, SyncClinic(context.Background(), nil, nil, nil, nil))
}

func TestSyncClinic_HonoursScheduleLock(t *testing.T) {
	logger := zerolog.Nop()
	st, err := db.NewDB(filepath.Join(t.TempDir(), "sync.db"), &logger)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	cfg, err := LoadClinicConfig(writeFile(t, t.TempDir(), "clinic.yaml", clinicYAML))
	require.NoError(t, err)

	locker := lock.NewLocal(30 * time.Millisecond)
	release, err := locker.Acquire(ctx, cfg.Professionals[0].ID, lock.ScheduleKey)
	require.NoError(t, err)

	// An exception edit is in flight for this professional.
	err = SyncClinic(ctx, st, locker, cfg, &logger)
	assert.ErrorIs(t, err, lock.ErrNotAcquired)

	require.NoError(t, release(ctx))
	require.NoError(t, SyncClinic(ctx, st, locker, cfg, &logger))
}
