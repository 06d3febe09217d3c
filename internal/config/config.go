// Package config provides configuration loading and management for orga.
package config

import (
	"fmt"
	"time"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/plan"
)

// Config is the root configuration.
type Config struct {
	DB      DBConfig      `json:"db"      mapstructure:"db"`
	Scoring ScoringConfig `json:"scoring" mapstructure:"scoring"`
	Plan    PlanConfig    `json:"plan"    mapstructure:"plan"`
	Server  ServerConfig  `json:"server"  mapstructure:"server"`
	Log     LogConfig     `json:"log"     mapstructure:"log"`
}

// DBConfig locates the task database.
type DBConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// ScoringConfig tunes the metric pass.
type ScoringConfig struct {
	ClampJoinOffset bool `json:"clamp_join_offset" mapstructure:"clamp_join_offset"`
	StrictCycles    bool `json:"strict_cycles"     mapstructure:"strict_cycles"`
}

// PlanConfig maps attempt slots onto calendar days.
type PlanConfig struct {
	StartDate time.Time `json:"start_date,omitempty" mapstructure:"start_date"`
	SlotDays  int       `json:"slot_days"            mapstructure:"slot_days"`
}

// ServerConfig configures the read-only web view.
type ServerConfig struct {
	Port int `json:"port" mapstructure:"port"`
}

// LogConfig selects the log output format.
type LogConfig struct {
	Format string `json:"format" mapstructure:"format"`
}

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DateLayout is the layout of plan.start_date.
const DateLayout = time.DateOnly

// Defaults returns the default value of every config key, keyed by its
// dotted path.
func Defaults() map[string]any {
	return map[string]any{
		"db.path":                   ".orga/orga.db",
		"scoring.clamp_join_offset": false,
		"scoring.strict_cycles":     false,
		"plan.start_date":           "",
		"plan.slot_days":            1,
		"server.port":               8080,
		"log.format":                LogFormatConsole,
	}
}

// GraphOptions returns the metric pass options.
func (c Config) GraphOptions() graph.Options {
	return graph.Options{
		ClampJoinOffset: c.Scoring.ClampJoinOffset,
		StrictCycles:    c.Scoring.StrictCycles,
	}
}

// Calendar returns the slot calendar, or nil when no start date is set.
func (c Config) Calendar() *plan.Calendar {
	if c.Plan.StartDate.IsZero() {
		return nil
	}
	return &plan.Calendar{Start: c.Plan.StartDate, SlotDays: c.Plan.SlotDays}
}

// Validate checks decoded values the schema cannot express.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if c.Plan.SlotDays < 1 {
		return fmt.Errorf("plan.slot_days must be >= 1, got %d", c.Plan.SlotDays)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 1..65535, got %d", c.Server.Port)
	}
	return nil
}
