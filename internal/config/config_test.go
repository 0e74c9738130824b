package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NO_COLOR", "")

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DataPath != filepath.Join(home, "chores.jsonl") {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if cfg.EventsDB != filepath.Join(home, "events.db") {
		t.Errorf("EventsDB = %q", cfg.EventsDB)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "chore.jsonl") {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.CompletedPath != "" {
		t.Errorf("CompletedPath = %q, want empty", cfg.CompletedPath)
	}
	if cfg.NodeID != 1 || !cfg.Colors || !cfg.ConfirmDelete || cfg.InfoMode != InfoModeAppend {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReplaceInfo() {
		t.Error("default info mode should append")
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	yaml := `data_path: /srv/chores/work.jsonl
node_id: 7
info_mode: Replace
colors: false
validate_schedule: "0 * * * *"
`
	if err := os.WriteFile(ConfigPath(home), []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("CHORE_NODE_ID", "12")
	t.Setenv("CHORE_LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DataPath != "/srv/chores/work.jsonl" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if cfg.NodeID != 12 {
		t.Errorf("NodeID = %d, want env override 12", cfg.NodeID)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !cfg.ReplaceInfo() {
		t.Error("info_mode Replace should normalize to replace")
	}
	if cfg.Colors {
		t.Error("colors should be off")
	}
	if cfg.ValidateSchedule != "0 * * * *" {
		t.Errorf("ValidateSchedule = %q", cfg.ValidateSchedule)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{"node id too large", "node_id: 5000\n", nil, "node_id 5000 out of range"},
		{"bad info mode", "info_mode: merge\n", nil, "info_mode must be"},
		{"same log paths", "data_path: a.jsonl\ncompleted_path: a.jsonl\n", nil, "completed_path must differ"},
		{"malformed yaml", "node_id: [\n", nil, "failed to parse config"},
		{"bad env value", "", map[string]string{"CHORE_COLORS": "maybe"}, "CHORE_COLORS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if tt.yaml != "" {
				if err := os.WriteFile(ConfigPath(home), []byte(tt.yaml), 0o644); err != nil {
					t.Fatalf("WriteFile: %v", err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(home)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetGetSave(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if err := cfg.Set("confirm_delete", "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("node_id", "9"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("node_id", "abc"); err == nil {
		t.Error("expected error for non-numeric node_id")
	}
	if err := cfg.Set("unknown", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if got, _ := cfg.Get("node_id"); got != "9" {
		t.Errorf("Get(node_id) = %q", got)
	}

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	reloaded, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ConfirmDelete || reloaded.NodeID != 9 {
		t.Errorf("reloaded = %+v", reloaded)
	}
}

func TestLoadConfig_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Colors {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestHomeDir_EnvOverride(t *testing.T) {
	t.Setenv("CHORE_HOME", "/tmp/chore-home")
	if got := HomeDir(); got != "/tmp/chore-home" {
		t.Errorf("HomeDir() = %q", got)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 10 || keys[0] != "colors" {
		t.Errorf("Keys() = %v", keys)
	}
	for _, k := range keys {
		cfg := defaultConfig(t.TempDir())
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q): %v", k, err)
		}
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHORE_NODE_ID", "99")
	t.Setenv("NO_COLOR", "1")

	cfg, err := LoadFile(home)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.NodeID != 1 || !cfg.Colors {
		t.Errorf("LoadFile applied environment: node_id=%d colors=%v", cfg.NodeID, cfg.Colors)
	}
}
