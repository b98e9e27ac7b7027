package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"planner/internal/storage"
	"planner/internal/task"
	"planner/internal/view"
)

const (
	AppName               = "planner"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultJSONName       = "tasks.json"
	EnvConfigPath         = "PLANNER_CONFIG"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Add         string `toml:"add"`
	Edit        string `toml:"edit"`
	Delete      string `toml:"delete"`
	Filter      string `toml:"filter"`
	ClearFilter string `toml:"clear_filter"`
	Sort        string `toml:"sort"`
	Export      string `toml:"export"`
	Import      string `toml:"import"`
	Agenda      string `toml:"agenda"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	NextField   string `toml:"next_field"`
	PrevField   string `toml:"prev_field"`
}

type Config struct {
	Backend       string `toml:"backend"`
	DBPath        string `toml:"db_path"`
	JSONPath      string `toml:"json_path"`
	DefaultSort   string `toml:"default_sort"`
	DefaultStatus string `toml:"default_status"`
	LogFile       string `toml:"log_file"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath honours $PLANNER_CONFIG, then the user config directory,
// then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first if it does not exist.
// Relative store paths are resolved against the config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.JSONPath == "" {
		cfg.JSONPath = DefaultJSONName
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case "", storage.BackendSQLite, storage.BackendJSON:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := view.ParseSortKey(c.DefaultSort); err != nil {
		return err
	}
	if c.DefaultStatus != "" && c.DefaultStatus != view.StatusAll && !task.Status(c.DefaultStatus).Valid() {
		return fmt.Errorf("unknown default status %q", c.DefaultStatus)
	}
	return nil
}

// StorePath is the file the configured backend uses.
func (c Config) StorePath() string {
	if c.Backend == storage.BackendJSON {
		return c.JSONPath
	}
	return c.DBPath
}

func (c Config) resolve(dir string) Config {
	c.DBPath = resolvePath(dir, c.DBPath)
	c.JSONPath = resolvePath(dir, c.JSONPath)
	if c.LogFile != "" {
		c.LogFile = resolvePath(dir, c.LogFile)
	}
	return c
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Backend:       storage.BackendSQLite,
		DBPath:        DefaultDBName,
		JSONPath:      DefaultJSONName,
		DefaultSort:   string(view.SortDue),
		DefaultStatus: view.StatusAll,
		Keys: Keymap{
			Quit:        "q",
			Up:          "k",
			Down:        "j",
			Add:         "a",
			Edit:        "e",
			Delete:      "d",
			Filter:      "/",
			ClearFilter: "c",
			Sort:        "s",
			Export:      "x",
			Import:      "i",
			Agenda:      "g",
			Confirm:     "enter",
			Cancel:      "esc",
			NextField:   "tab",
			PrevField:   "shift+tab",
		},
	}
}
