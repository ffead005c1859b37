package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook/internal/model"
)

func TestNormalizeBlocks(t *testing.T) {
	in := []model.TimeBlock{
		{Start: " 14:00", End: "18:00 "},
		{ID: "keep", Start: "09:00", End: "13:00", Kind: model.BlockWork},
		{Start: "13:00", End: "14:00", Kind: model.BlockLunch},
	}

	out := NormalizeBlocks(in)
	require.Len(t, out, 3)
	assert.Equal(t, "keep", out[0].ID)
	assert.Equal(t, model.BlockLunch, out[1].Kind)
	assert.Equal(t, "14:00", out[2].Start)
	assert.Equal(t, "18:00", out[2].End)
	assert.Equal(t, model.BlockWork, out[2].Kind)
	assert.NotEmpty(t, out[2].ID)
	assert.NotEqual(t, out[1].ID, out[2].ID)

	// input untouched
	assert.Equal(t, "", in[0].ID)
}

func TestNormalizeSchedule(t *testing.T) {
	out := NormalizeSchedule(model.WeeklySchedule{
		" Monday ": {Active: true, Blocks: []model.TimeBlock{{Start: "09:00", End: "18:00"}}},
	})
	day, ok := out.Day(model.Monday)
	require.True(t, ok)
	assert.True(t, day.Active)
	assert.NotEmpty(t, day.Blocks[0].ID)
}

func TestNormalizeException(t *testing.T) {
	ex := NormalizeException(model.ScheduleException{
		Date:   "2026-03-02",
		Type:   model.ExceptionUnavailable,
		Blocks: []model.TimeBlock{{Start: "09:00", End: "10:00"}},
	})
	assert.NotEmpty(t, ex.ID)
	assert.Empty(t, ex.Blocks)
}

func TestUpsertAndRemoveException(t *testing.T) {
	list := []model.ScheduleException{
		{ID: "a", Date: "2026-03-05", Type: model.ExceptionUnavailable},
		{ID: "b", Date: "2026-03-01", Type: model.ExceptionUnavailable},
	}

	list = UpsertException(list, model.ScheduleException{ID: "c", Date: "2026-03-03", Type: model.ExceptionCustom})
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	// same date replaces
	list = UpsertException(list, model.ScheduleException{ID: "d", Date: "2026-03-05", Type: model.ExceptionCustom})
	require.Len(t, list, 3)
	assert.Equal(t, "d", list[2].ID)

	// same id moves the date
	list = UpsertException(list, model.ScheduleException{ID: "b", Date: "2026-03-10", Type: model.ExceptionCustom})
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[2].ID)

	list, found := RemoveException(list, "c")
	assert.True(t, found)
	assert.Len(t, list, 2)

	_, found = RemoveException(list, "missing")
	assert.False(t, found)
}
