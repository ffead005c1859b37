package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook/internal/model"
)

const clinicYAML = `
treatments:
  - id: manicure
    name: Manicure
    category: nails
    duration: 45
    price: 35
    active: true
  - id: facial
    name: Facial
    category: face
    duration: 60
    price: 70
    active: true
professionals:
  - id: anna
    name: Anna
    specialty: nails
    treatments:
      - treatment_id: manicure
        price: 40
    schedule:
      monday:
        active: true
        blocks:
          - {start: "09:00", end: "18:00", kind: work}
          - {start: "13:00", end: "14:00", kind: lunch}
      Tuesday:
        active: true
        blocks:
          - {start: "12:00", end: "20:00"}
    exceptions:
      - date: "2026-03-16"
        type: custom
        reason: short day
        blocks:
          - {start: "10:00", end: "14:00", kind: work}
  - id: bella
    name: Bella
    active: false
    treatments:
      - treatment_id: facial
holidays:
  - date: "2026-05-01"
    name: Labour Day
`

func TestLoadClinicConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clinic.yaml", clinicYAML)

	cfg, err := LoadClinicConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Treatments, 2)
	require.Len(t, cfg.Professionals, 2)

	anna := cfg.Professionals[0]
	assert.True(t, anna.IsActive())
	assert.False(t, cfg.Professionals[1].IsActive())

	monday := anna.Schedule["monday"]
	require.Len(t, monday.Blocks, 2)
	assert.Equal(t, "anna-monday-1", monday.Blocks[0].ID)
	assert.Equal(t, model.BlockLunch, monday.Blocks[1].Kind)

	tuesday, ok := anna.Schedule["tuesday"]
	require.True(t, ok, "weekday keys are lowercased")
	assert.Equal(t, model.BlockWork, tuesday.Blocks[0].Kind)

	require.Len(t, anna.Exceptions, 1)
	assert.Equal(t, "anna-2026-03-16", anna.Exceptions[0].ID)

	// Reloading an unchanged file yields the same ids.
	again, err := LoadClinicConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Professionals[0].Schedule, again.Professionals[0].Schedule)
}

func TestLoadClinicConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"duplicate treatment",
			"treatments:\n  - {id: a, name: A, duration: 30}\n  - {id: a, name: B, duration: 30}\n",
			"duplicate id 'a'",
		},
		{
			"zero duration",
			"treatments:\n  - {id: a, name: A, duration: 0}\n",
			"duration must be positive",
		},
		{
			"unknown offered treatment",
			"professionals:\n  - id: p\n    name: P\n    treatments:\n      - treatment_id: nope\n",
			"unknown treatment 'nope'",
		},
		{
			"overlapping work blocks",
			"professionals:\n  - id: p\n    name: P\n    schedule:\n      monday:\n        active: true\n        blocks:\n          - {start: \"09:00\", end: \"13:00\"}\n          - {start: \"12:00\", end: \"18:00\"}\n",
			"overlap",
		},
		{
			"active day without blocks",
			"professionals:\n  - id: p\n    name: P\n    schedule:\n      friday:\n        active: true\n",
			"professional p",
		},
		{
			"bad holiday",
			"holidays:\n  - {date: 01.05.2026, name: May}\n",
			"expected YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadClinicConfig(writeFile(t, t.TempDir(), "clinic.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWatchClinic_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clinic.yaml", clinicYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *ClinicConfig, 4)
	require.NoError(t, WatchClinic(ctx, path, 10*time.Millisecond, nil, func(c *ClinicConfig) { updates <- c }))

	first := <-updates
	assert.Len(t, first.Treatments, 2)

	changed := strings.Replace(clinicYAML, "duration: 45", "duration: 50", 1)
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case c := <-updates:
		assert.Equal(t, 50, c.Treatments[0].Duration)
	case <-time.After(2 * time.Second):
		t.Fatal("clinic config was not reloaded")
	}
}

func TestWatchClinic_InitialLoadError(t *testing.T) {
	err := WatchClinic(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), time.Second, nil, nil)
	assert.Error(t, err)
}

func TestLoadClinicConfig_ShippedExample(t *testing.T) {
	cfg, err := LoadClinicConfig(filepath.Join("..", "..", "configs", "clinic.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Treatments)
	assert.NotEmpty(t, cfg.Professionals)

	lucia := cfg.Professionals[0]
	assert.Equal(t, "lucia-tuesday-2", lucia.Schedule[model.Tuesday].Blocks[1].ID)
	assert.Equal(t, "lucia-monday-2", lucia.Schedule[model.Monday].Blocks[1].ID)
}
