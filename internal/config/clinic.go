package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"beautybook/internal/clock"
	"beautybook/internal/model"
	"beautybook/internal/schedule"
)

const DefaultClinicPath = "configs/clinic.yaml"

type ProfessionalConfig struct {
	ID         string                        `yaml:"id"`
	Name       string                        `yaml:"name"`
	Specialty  string                        `yaml:"specialty"`
	Active     *bool                         `yaml:"active,omitempty"` // defaults to true
	Treatments []model.ProfessionalTreatment `yaml:"treatments"`
	Schedule   model.WeeklySchedule          `yaml:"schedule"`
	Exceptions []model.ScheduleException     `yaml:"exceptions"`
}

func (p ProfessionalConfig) IsActive() bool {
	return p.Active == nil || *p.Active
}

// HolidayConfig closes the clinic for every professional on Date.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-01-01"
	Name string `yaml:"name"`
}

// ClinicConfig is the root of clinic.yaml.
type ClinicConfig struct {
	Treatments    []model.Treatment    `yaml:"treatments"`
	Professionals []ProfessionalConfig `yaml:"professionals"`
	Holidays      []HolidayConfig      `yaml:"holidays"`
}

// LoadClinicConfig loads, normalizes and validates the catalogue at path.
func LoadClinicConfig(path string) (*ClinicConfig, error) {
	if path == "" {
		path = DefaultClinicPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clinic config: %w", err)
	}

	var cfg ClinicConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse clinic config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate clinic config: %w", err)
	}
	return &cfg, nil
}

// normalize gives every block and exception a stable id derived from its
// position so reloading an unchanged file produces identical documents.
func (c *ClinicConfig) normalize() {
	for i := range c.Treatments {
		c.Treatments[i].ID = strings.TrimSpace(c.Treatments[i].ID)
	}
	for i := range c.Professionals {
		p := &c.Professionals[i]
		p.ID = strings.TrimSpace(p.ID)

		for day, ds := range p.Schedule {
			for j := range ds.Blocks {
				if ds.Blocks[j].ID == "" {
					ds.Blocks[j].ID = fmt.Sprintf("%s-%s-%d", p.ID, strings.ToLower(string(day)), j+1)
				}
			}
		}
		p.Schedule = schedule.NormalizeSchedule(p.Schedule)

		for j := range p.Exceptions {
			ex := &p.Exceptions[j]
			if ex.ID == "" {
				ex.ID = fmt.Sprintf("%s-%s", p.ID, strings.TrimSpace(ex.Date))
			}
			for k := range ex.Blocks {
				if ex.Blocks[k].ID == "" {
					ex.Blocks[k].ID = fmt.Sprintf("%s-%d", ex.ID, k+1)
				}
			}
			*ex = schedule.NormalizeException(*ex)
		}
	}
}

// Validate checks the catalogue. Schedule problems are reported with the
// professional's id in front of the validator's message.
func (c *ClinicConfig) Validate() error {
	treatments := make(map[string]bool)
	for i, t := range c.Treatments {
		if t.ID == "" {
			return fmt.Errorf("treatment[%d]: id is required", i)
		}
		if treatments[t.ID] {
			return fmt.Errorf("treatment[%d]: duplicate id '%s'", i, t.ID)
		}
		treatments[t.ID] = true
		if t.Name == "" {
			return fmt.Errorf("treatment[%d]: name is required", i)
		}
		if t.Duration <= 0 {
			return fmt.Errorf("treatment %s: duration must be positive", t.ID)
		}
		if t.Price < 0 {
			return fmt.Errorf("treatment %s: price cannot be negative", t.ID)
		}
	}

	ids := make(map[string]bool)
	for i, p := range c.Professionals {
		if p.ID == "" {
			return fmt.Errorf("professional[%d]: id is required", i)
		}
		if ids[p.ID] {
			return fmt.Errorf("professional[%d]: duplicate id '%s'", i, p.ID)
		}
		ids[p.ID] = true
		if p.Name == "" {
			return fmt.Errorf("professional %s: name is required", p.ID)
		}

		for _, pt := range p.Treatments {
			if !treatments[pt.TreatmentID] {
				return fmt.Errorf("professional %s: unknown treatment '%s'", p.ID, pt.TreatmentID)
			}
		}
		if msgs := schedule.ValidateSchedule(p.Schedule); len(msgs) > 0 {
			return fmt.Errorf("professional %s: %s", p.ID, strings.Join(msgs, "; "))
		}

		var msgs []string
		for _, ex := range p.Exceptions {
			msgs = append(msgs, schedule.ValidateException(ex)...)
			for _, id := range ex.AvailableTreatmentsOverride {
				if !treatments[id] {
					msgs = append(msgs, fmt.Sprintf("exception %s: unknown treatment '%s'", ex.Date, id))
				}
			}
		}
		msgs = append(msgs, schedule.ValidateExceptions(p.Exceptions)...)
		if len(msgs) > 0 {
			return fmt.Errorf("professional %s: %s", p.ID, strings.Join(msgs, "; "))
		}
	}

	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if _, err := clock.ParseDate(h.Date); err != nil {
			return fmt.Errorf("holiday[%d]: invalid date format '%s', expected YYYY-MM-DD", i, h.Date)
		}
	}
	return nil
}
