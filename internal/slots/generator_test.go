package slots

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook/internal/clock"
	"beautybook/internal/model"
)

func work(start, end string) model.TimeBlock {
	return model.TimeBlock{ID: start, Start: start, End: end, Kind: model.BlockWork}
}

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name        string
		blocks      []model.TimeBlock
		duration    int
		granularity int
		want        []string
		wantCount   int
	}{
		{
			name:        "full day hour appointments",
			blocks:      []model.TimeBlock{work("09:00", "18:00")},
			duration:    60,
			granularity: 30,
			wantCount:   17,
		},
		{
			name: "lunch splits the day",
			blocks: []model.TimeBlock{
				work("09:00", "18:00"),
				{Start: "13:00", End: "14:00", Kind: model.BlockLunch},
			},
			duration:    30,
			granularity: 30,
			wantCount:   16,
		},
		{
			name:        "unsorted blocks",
			blocks:      []model.TimeBlock{work("14:00", "16:00"), work("09:00", "10:00")},
			duration:    60,
			granularity: 30,
			want:        []string{"09:00", "14:00", "14:30", "15:00"},
		},
		{
			name:        "overlapping work blocks do not duplicate",
			blocks:      []model.TimeBlock{work("09:00", "11:00"), work("10:00", "12:00")},
			duration:    60,
			granularity: 30,
			want:        []string{"09:00", "09:30", "10:00", "10:30", "11:00"},
		},
		{
			name:        "fifteen minute grid",
			blocks:      []model.TimeBlock{work("09:00", "10:00")},
			duration:    30,
			granularity: 15,
			want:        []string{"09:00", "09:15", "09:30"},
		},
		{
			name:        "appointment longer than block",
			blocks:      []model.TimeBlock{work("09:00", "09:45")},
			duration:    60,
			granularity: 15,
			wantCount:   0,
		},
		{
			name: "break only",
			blocks: []model.TimeBlock{
				{Start: "12:00", End: "13:00", Kind: model.BlockBreak},
			},
			duration:    30,
			granularity: 30,
			wantCount:   0,
		},
		{
			name:        "no blocks",
			duration:    30,
			granularity: 30,
			wantCount:   0,
		},
		{
			name:        "block until midnight",
			blocks:      []model.TimeBlock{work("22:00", "24:00")},
			duration:    60,
			granularity: 60,
			want:        []string{"22:00", "23:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSlots(tt.blocks, tt.duration, tt.granularity)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
				return
			}
			if len(got) != tt.wantCount {
				t.Errorf("expected %d slots, got %d: %v", tt.wantCount, len(got), got)
			}

			// Check no lunch slots if lunch is defined
			for _, b := range tt.blocks {
				if b.Kind != model.BlockLunch {
					continue
				}
				for _, s := range got {
					if s >= b.Start && s < b.End {
						t.Errorf("lunch slot %s should not be generated", s)
					}
				}
			}
		})
	}
}

func TestGenerateSlots_ScenarioA(t *testing.T) {
	got, err := GenerateSlots([]model.TimeBlock{work("09:00", "18:00")}, 60, DefaultGranularity)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "09:00", got[0])
	assert.Equal(t, "17:00", got[len(got)-1])
	assert.NotContains(t, got, "17:30")
}

func TestGenerateSlots_Errors(t *testing.T) {
	blocks := []model.TimeBlock{work("09:00", "18:00")}

	_, err := GenerateSlots(blocks, 0, 30)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = GenerateSlots(blocks, 30, 0)
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = GenerateSlots([]model.TimeBlock{work("9am", "18:00")}, 30, 30)
	assert.ErrorIs(t, err, ErrInvalidBlock)
	assert.ErrorIs(t, err, clock.ErrInvalidTime)

	_, err = GenerateSlots([]model.TimeBlock{work("18:00", "09:00")}, 30, 30)
	assert.ErrorIs(t, err, ErrInvalidBlock)

	for _, kind := range []model.BlockKind{"Work", "", "nap"} {
		t.Run(string(kind), func(t *testing.T) {
			blocks := []model.TimeBlock{{ID: "b1", Start: "09:00", End: "18:00", Kind: kind}}
			_, err := GenerateSlots(blocks, 30, 30)
			assert.ErrorIs(t, err, ErrInvalidBlock)

			_, err = Fits(blocks, "09:00", 30)
			assert.ErrorIs(t, err, ErrInvalidBlock)
		})
	}
}

func TestGenerateSlots_StaysOnGridAfterBreak(t *testing.T) {
	blocks := []model.TimeBlock{
		work("09:00", "18:00"),
		{ID: "lunch", Start: "13:00", End: "13:45", Kind: model.BlockLunch},
	}

	got, err := GenerateSlots(blocks, 60, 30)
	require.NoError(t, err)
	assert.Contains(t, got, "12:00")
	assert.NotContains(t, got, "13:45")
	assert.Equal(t, []string{"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00"}, got[len(got)-7:])

	for _, s := range got {
		m, err := clock.TimeToMinutes(s)
		require.NoError(t, err)
		assert.Zero(t, (m-9*60)%30, "slot %s is off the grid", s)
	}

	// grid of a block that starts off the hour
	got, err = GenerateSlots([]model.TimeBlock{
		work("09:15", "12:00"),
		{ID: "coffee", Start: "10:00", End: "10:20", Kind: model.BlockBreak},
	}, 30, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:15", "10:45", "11:15"}, got)
}

// Every slot starts inside some work block and ends before that block ends.
func TestGenerateSlots_StayInsideBlocks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		var blocks []model.TimeBlock
		for n := rng.Intn(3) + 1; n > 0; n-- {
			start := rng.Intn(20*4) * 15
			end := start + (rng.Intn(16)+1)*15
			blocks = append(blocks, work(clock.MinutesToTime(start), clock.MinutesToTime(end)))
		}
		duration := (rng.Intn(8) + 1) * 15
		granularity := []int{15, 30}[rng.Intn(2)]

		got, err := GenerateSlots(blocks, duration, granularity)
		require.NoError(t, err)

		for _, s := range got {
			m, err := clock.TimeToMinutes(s)
			require.NoError(t, err)

			inside := false
			for _, b := range blocks {
				bs, _ := clock.TimeToMinutes(b.Start)
				be, _ := clock.TimeToMinutes(b.End)
				if m >= bs && m+duration <= be {
					inside = true
					break
				}
			}
			assert.True(t, inside, "slot %s+%d outside %v", s, duration, blocks)
		}
	}
}

func TestFits(t *testing.T) {
	blocks := []model.TimeBlock{
		work("09:00", "18:00"),
		{Start: "13:00", End: "14:00", Kind: model.BlockLunch},
	}

	tests := []struct {
		start    string
		duration int
		want     bool
	}{
		{"09:00", 60, true},
		{"12:00", 60, true},
		{"12:30", 60, false},
		{"14:00", 240, true},
		{"17:30", 60, false},
		{"08:30", 60, false},
		{"10:10", 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got, err := Fits(blocks, tt.start, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func scenarioGrid(t *testing.T, now time.Time) []model.Slot {
	t.Helper()
	date := clock.Date{Year: 2026, Month: time.March, Day: 2}

	candidates, err := GenerateSlots([]model.TimeBlock{work("09:00", "18:00")}, 60, 30)
	require.NoError(t, err)

	existing := []model.Appointment{{
		ID: "a1", Date: date.String(), StartTime: "10:00", Duration: 60, Status: model.StatusScheduled,
	}}
	grid, err := BuildGrid(candidates, 60, existing, now, date, time.UTC)
	require.NoError(t, err)
	return grid
}

func statusAt(grid []model.Slot, at string) model.SlotStatus {
	for _, s := range grid {
		if s.Time == at {
			return s.Status
		}
	}
	return ""
}

func TestBuildGrid_ScenarioB(t *testing.T) {
	grid := scenarioGrid(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, model.SlotAvailable, statusAt(grid, "09:00"))
	assert.Equal(t, model.SlotBooked, statusAt(grid, "09:30"))
	assert.Equal(t, model.SlotBooked, statusAt(grid, "10:00"))
	assert.Equal(t, model.SlotBooked, statusAt(grid, "10:30"))
	assert.Equal(t, model.SlotAvailable, statusAt(grid, "11:00"))
	assert.Equal(t, "11:00", grid[2].End)
}

func TestBuildGrid_Past(t *testing.T) {
	grid := scenarioGrid(t, time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC))

	assert.Equal(t, model.SlotPast, statusAt(grid, "09:00"))
	assert.Equal(t, model.SlotPast, statusAt(grid, "10:00"))
	assert.Equal(t, model.SlotBooked, statusAt(grid, "10:30"))
	assert.Equal(t, model.SlotAvailable, statusAt(grid, "11:00"))
}

func TestConsecutiveRunsAndDurationOptions(t *testing.T) {
	grid := scenarioGrid(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	runs := ConsecutiveRuns(grid, 30)
	require.Len(t, runs, 2)
	assert.Len(t, runs[0], 1)
	assert.Equal(t, "11:00", runs[1][0].Time)
	assert.Equal(t, "17:00", runs[1][len(runs[1])-1].Time)

	assert.Equal(t, []int{30, 60, 90}, DurationOptions(grid, "16:00", 30))
	assert.Nil(t, DurationOptions(grid, "10:00", 30))
	assert.Len(t, AvailableOnly(grid), 14)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 min", FormatDuration(45))
	assert.Equal(t, "1 h", FormatDuration(60))
	assert.Equal(t, "2 h", FormatDuration(120))
	assert.Equal(t, "1 h 30 min", FormatDuration(90))
}
