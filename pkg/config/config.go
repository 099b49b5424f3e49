// Package config handles loading and saving winnow configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/winnow/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Feed is a named feed target registered in the config.
type Feed struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"` // http(s) URL, .db path or .jsonl path
}

// ListConfig holds windowed-list tuning knobs.
type ListConfig struct {
	PageSize        int `yaml:"page_size,omitempty"`
	PoolSize        int `yaml:"pool_size,omitempty"`
	BufferRows      int `yaml:"buffer_rows,omitempty"`
	CollapsedHeight int `yaml:"collapsed_height,omitempty"`
	ExpandedHeight  int `yaml:"expanded_height,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme            string        `yaml:"theme,omitempty"` // dark, light
	SearchDebounce   time.Duration `yaml:"search_debounce,omitempty"`
	ShowFilterChips  *bool         `yaml:"show_filter_chips,omitempty"`
	LoadMoreRows     int           `yaml:"load_more_rows,omitempty"` // trigger distance from list end
}

// Config is the top-level winnow configuration.
type Config struct {
	DefaultFeed string     `yaml:"default_feed,omitempty"`
	Feeds       []Feed     `yaml:"feeds,omitempty"`
	List        ListConfig `yaml:"list,omitempty"`
	UI          UIConfig   `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	show := true
	return Config{
		List: ListConfig{
			PageSize:        50,
			PoolSize:        30,
			BufferRows:      5,
			CollapsedHeight: 2,
			ExpandedHeight:  12,
		},
		UI: UIConfig{
			Theme:           "dark",
			SearchDebounce:  300 * time.Millisecond,
			ShowFilterChips: &show,
			LoadMoreRows:    5,
		},
	}
}

// Dir returns the XDG config directory for winnow.
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "winnow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "winnow")
}

// Path returns the full path to config.yaml.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Feeds {
		cfg.Feeds[i].Target = expandHome(cfg.Feeds[i].Target)
	}
	return cfg, nil
}

// Save writes the config to a specific path.
func Save(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FindFeed returns the feed with the given name, or nil.
func (c Config) FindFeed(name string) *Feed {
	for i := range c.Feeds {
		if strings.EqualFold(c.Feeds[i].Name, name) {
			return &c.Feeds[i]
		}
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
