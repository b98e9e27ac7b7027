package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate() err=%v, want nil", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if cfg.Backend != "sqlite" {
		t.Fatalf("Backend=%q, want sqlite", cfg.Backend)
	}
	if want := filepath.Join(dir, "nested", DefaultDBName); cfg.DBPath != want {
		t.Fatalf("DBPath=%q, want %q", cfg.DBPath, want)
	}
	if cfg.StorePath() != cfg.DBPath {
		t.Fatalf("StorePath()=%q, want %q", cfg.StorePath(), cfg.DBPath)
	}
	if cfg.Keys.Quit != "q" || cfg.Keys.Confirm != "enter" {
		t.Fatalf("Keys=%+v", cfg.Keys)
	}

	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second LoadOrCreate() err=%v", err)
	}
	if again != cfg {
		t.Fatalf("reloaded config=%+v, want %+v", again, cfg)
	}
}

func TestLoadOrCreate_ReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `backend = "json"
json_path = "/var/tmp/planner.json"
default_sort = "priority"

[keys]
quit = "ctrl+q"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile err=%v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate() err=%v", err)
	}
	if cfg.StorePath() != "/var/tmp/planner.json" {
		t.Fatalf("StorePath()=%q", cfg.StorePath())
	}
	if cfg.DefaultSort != "priority" {
		t.Fatalf("DefaultSort=%q, want priority", cfg.DefaultSort)
	}
	if cfg.Keys.Quit != "ctrl+q" {
		t.Fatalf("Keys.Quit=%q, want ctrl+q", cfg.Keys.Quit)
	}
	if cfg.Keys.Add != "a" {
		t.Fatalf("Keys.Add=%q, want default a", cfg.Keys.Add)
	}
	if cfg.DBPath != filepath.Join(dir, DefaultDBName) {
		t.Fatalf("DBPath=%q", cfg.DBPath)
	}
}

func TestLoadOrCreate_Rejects(t *testing.T) {
	tests := map[string]string{
		"backend": `backend = "postgres"`,
		"sort":    `default_sort = "title"`,
		"status":  `default_status = "blocked"`,
		"syntax":  `backend = `,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile err=%v", err)
			}
			_, err := LoadOrCreate(path)
			if err == nil || !strings.Contains(err.Error(), path) {
				t.Fatalf("LoadOrCreate() err=%v, want error naming %s", err, path)
			}
		})
	}
}

func TestResolveConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	if got := ResolveConfigPath(); got != "/tmp/custom.toml" {
		t.Fatalf("ResolveConfigPath()=%q, want /tmp/custom.toml", got)
	}
}
