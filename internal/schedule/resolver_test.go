package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook/internal/clock"
	"beautybook/internal/model"
)

func workDay(start, end string) model.DaySchedule {
	return model.DaySchedule{
		Active: true,
		Blocks: []model.TimeBlock{{ID: "w1", Start: start, End: end, Kind: model.BlockWork}},
	}
}

func newProfessional() *model.Professional {
	return &model.Professional{
		ID:     "pro-1",
		Name:   "Ana",
		Active: true,
		BaseSchedule: model.WeeklySchedule{
			model.Monday:    workDay("09:00", "18:00"),
			model.Tuesday:   workDay("10:00", "16:00"),
			model.Wednesday: {Active: false, Blocks: []model.TimeBlock{{ID: "x", Start: "09:00", End: "12:00", Kind: model.BlockWork}}},
		},
		AvailableTreatments: []model.ProfessionalTreatment{{TreatmentID: "facial_x"}, {TreatmentID: "manicure"}},
	}
}

// 2026-03-02 is a Monday.
const monday = "2026-03-02"

func TestResolve_Template(t *testing.T) {
	p := newProfessional()

	res, err := ResolveEffectiveSchedule(p, monday)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, SourceTemplate, res.Source)
	assert.Equal(t, model.Monday, res.Weekday)
	assert.Equal(t, []model.TimeBlock{{ID: "w1", Start: "09:00", End: "18:00", Kind: model.BlockWork}}, res.Blocks)
	assert.False(t, res.AllowedTreatments.All)
	assert.Equal(t, []string{"facial_x", "manicure"}, res.AllowedTreatments.IDs)
	assert.True(t, res.AllowedTreatments.Allows("manicure"))
	assert.False(t, res.AllowedTreatments.Allows("pedicure"))
}

func TestResolve_TemplateDayOff(t *testing.T) {
	p := newProfessional()

	tests := []struct {
		name string
		date string
	}{
		{"inactive day", "2026-03-04"},
		{"missing day", "2026-03-08"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveEffectiveSchedule(p, tt.date)
			require.NoError(t, err)
			assert.False(t, res.Available)
			assert.Empty(t, res.Blocks)
			assert.Equal(t, SourceTemplate, res.Source)
		})
	}
}

func TestResolve_UnavailableExceptionDominates(t *testing.T) {
	p := newProfessional()
	for _, day := range model.Weekdays {
		p.BaseSchedule[day] = workDay("08:00", "20:00")
	}

	start, err := clock.ParseDate(monday)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		date := start.AddDays(i).String()
		p.ScheduleExceptions = []model.ScheduleException{{
			ID:     "ex",
			Date:   date,
			Type:   model.ExceptionUnavailable,
			Reason: "training",
			Blocks: []model.TimeBlock{{Start: "09:00", End: "10:00", Kind: model.BlockWork}},
		}}

		res, err := ResolveEffectiveSchedule(p, date)
		require.NoError(t, err)
		assert.False(t, res.Available, date)
		assert.Empty(t, res.Blocks, date)
		assert.Equal(t, SourceException, res.Source)
		assert.Equal(t, "training", res.Reason)
		assert.False(t, res.AllowedTreatments.Allows("facial_x"))
	}
}

func TestResolve_CustomExceptionReplacesTemplate(t *testing.T) {
	p := newProfessional()
	p.ScheduleExceptions = []model.ScheduleException{{
		ID:                          "ex-1",
		Date:                        monday,
		Type:                        model.ExceptionCustom,
		Blocks:                      []model.TimeBlock{{ID: "c1", Start: "14:00", End: "17:00", Kind: model.BlockWork}},
		AvailableTreatmentsOverride: []string{"facial_x"},
	}}

	res, err := ResolveEffectiveSchedule(p, monday)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, SourceException, res.Source)
	assert.Equal(t, "ex-1", res.ExceptionID)
	assert.Len(t, res.Blocks, 1)
	assert.Equal(t, "14:00", res.Blocks[0].Start)
	assert.True(t, res.AllowedTreatments.Allows("facial_x"))
	assert.False(t, res.AllowedTreatments.Allows("manicure"))
}

func TestResolve_PartialExceptionWithoutOverrideAllowsAll(t *testing.T) {
	p := newProfessional()
	p.ScheduleExceptions = []model.ScheduleException{
		SpecialHours(monday, "09:00", "12:00", "short day"),
	}
	p.ScheduleExceptions[0].Type = model.ExceptionPartial

	res, err := ResolveEffectiveSchedule(p, monday)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.True(t, res.AllowedTreatments.All)
	assert.True(t, res.AllowedTreatments.Allows("anything"))
	assert.Equal(t, "all", res.AllowedTreatments.String())
}

func TestResolve_EmptyCustomException(t *testing.T) {
	p := newProfessional()
	p.ScheduleExceptions = []model.ScheduleException{{ID: "e", Date: monday, Type: model.ExceptionCustom}}

	res, err := ResolveEffectiveSchedule(p, monday)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Empty(t, res.Blocks)
	assert.NotNil(t, res.Blocks)
}

func TestResolve_Errors(t *testing.T) {
	_, err := ResolveEffectiveSchedule(nil, monday)
	assert.ErrorIs(t, err, ErrNoProfessional)

	_, err = ResolveEffectiveSchedule(newProfessional(), "02/03/2026")
	assert.ErrorIs(t, err, clock.ErrInvalidDate)
}

func TestResolve_Idempotent(t *testing.T) {
	p := newProfessional()
	p.ScheduleExceptions = []model.ScheduleException{DayOff("2026-03-03", "holiday")}

	for _, date := range []string{monday, "2026-03-03", "2026-03-04"} {
		first, err := ResolveEffectiveSchedule(p, date)
		require.NoError(t, err)
		second, err := ResolveEffectiveSchedule(p, date)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestResolve_DoesNotAliasInput(t *testing.T) {
	p := newProfessional()
	res, err := ResolveEffectiveSchedule(p, monday)
	require.NoError(t, err)

	res.Blocks[0].Start = "00:00"
	assert.Equal(t, "09:00", p.BaseSchedule[model.Monday].Blocks[0].Start)
}

func TestEffectiveSchedule_WorkBlocks(t *testing.T) {
	res := EffectiveSchedule{Blocks: []model.TimeBlock{
		{Start: "09:00", End: "13:00", Kind: model.BlockWork},
		{Start: "13:00", End: "14:00", Kind: model.BlockLunch},
		{Start: "14:00", End: "18:00", Kind: model.BlockWork},
	}}
	assert.Len(t, res.WorkBlocks(), 2)
}
