package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/finchsec/vendorvet/internal/services"
)

// Config is the server's TOML configuration. Every field has a usable
// default, so running without a config file works out of the box.
type Config struct {
	Addr          string `toml:"addr"`
	SQLitePath    string `toml:"sqlite_path"`
	MigrationsDir string `toml:"migrations_dir"`

	SLAEnabled           bool `toml:"sla_enabled"`
	CheckIntervalMinutes int  `toml:"check_interval_minutes"`

	Reminders services.ReminderConfig `toml:"reminders"`
	SLA       []*services.SLAConfig   `toml:"sla"`
	TierRules []*services.TierRule    `toml:"tier_rules"`
}

func Default() *Config {
	return &Config{
		Addr:                 ":8080",
		SQLitePath:           "",
		SLAEnabled:           true,
		CheckIntervalMinutes: 60,
		Reminders: services.ReminderConfig{
			Enabled:           true,
			FirstReminderDays: 3,
			FrequencyDays:     5,
			MaxReminders:      3,
		},
		SLA: []*services.SLAConfig{
			{Tier: services.TierOne, ResponseDeadlineDays: 7, ReviewDeadlineDays: 5, WarningThresholdPct: 80, Enabled: true},
			{Tier: services.TierTwo, ResponseDeadlineDays: 14, ReviewDeadlineDays: 10, WarningThresholdPct: 80, Enabled: true},
			{Tier: services.TierThree, ResponseDeadlineDays: 30, ReviewDeadlineDays: 15, WarningThresholdPct: 80, Enabled: true},
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error; an empty path skips the read entirely.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
