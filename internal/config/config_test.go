package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/finchsec/vendorvet/internal/services"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Addr != ":8080" || !cfg.SLAEnabled || cfg.CheckIntervalMinutes != 60 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if len(cfg.SLA) != 3 {
		t.Fatalf("default SLA rows = %d, want one per tier", len(cfg.SLA))
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendorvet.toml")
	data := `
addr = ":9090"
sqlite_path = "/tmp/vendorvet.db"
check_interval_minutes = 15

[reminders]
enabled = true
first_reminder_days = 2
frequency_days = 4
max_reminders = 2
escalation_email = "risk@corp.example"

[[sla]]
tier = "Tier 1"
response_deadline_days = 5
review_deadline_days = 3
warning_threshold_pct = 75.0
enabled = true

[[tier_rules]]
field = "data_classification"
value = "PCI"
tier = "Tier 1"
priority = 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.SQLitePath != "/tmp/vendorvet.db" || cfg.CheckIntervalMinutes != 15 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Reminders.FirstReminderDays != 2 || cfg.Reminders.EscalationEmail != "risk@corp.example" {
		t.Fatalf("reminders = %+v", cfg.Reminders)
	}
	if len(cfg.SLA) != 1 || cfg.SLA[0].Tier != services.TierOne || cfg.SLA[0].WarningThresholdPct != 75 {
		t.Fatalf("sla = %+v", cfg.SLA)
	}
	if len(cfg.TierRules) != 1 || cfg.TierRules[0].Value != "PCI" {
		t.Fatalf("tier rules = %+v", cfg.TierRules)
	}
}
