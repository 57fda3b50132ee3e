package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".newsadvisor"

// EnvPrefix prefixes every environment variable newsadvisor reads.
const EnvPrefix = "NEWSADVISOR_"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .newsadvisor in the current directory
// 3. Look for .newsadvisor in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// LoadEnv reads .env files (best effort, existing variables win) and then
// applies NEWSADVISOR_* variables to c. With no paths, ".env" in the
// current directory is tried.
func LoadEnv(c *Config, paths ...string) error {
	_ = godotenv.Load(paths...)
	return ApplyEnv(c, os.Getenv)
}

// ApplyEnv applies NEWSADVISOR_* variables looked up through getenv.
func ApplyEnv(c *Config, getenv func(string) string) error {
	lookup := func(name string) (string, bool) {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		return v, v != ""
	}

	for _, key := range SettingKeys {
		if v, ok := lookup(strings.ToUpper(key)); ok {
			if err := c.Settings.Set(key, v); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(key), err)
			}
		}
	}
	if v, ok := lookup("VERBOSE"); ok {
		c.Verbose = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := lookup("LOG_JSON"); ok {
		c.LogJSON = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := lookup("MARGIN"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMARGIN: %w", EnvPrefix, ErrInvalidMargin)
		}
		c.Margin = n
	}
	if v, ok := lookup("DB_DIR"); ok {
		c.DBDir = v
	}
	if v, ok := lookup("USER_AGENT"); ok {
		c.UserAgent = v
	}
	if v, ok := lookup("BROWSER_URL"); ok {
		c.BrowserURL = v
	}
	return nil
}
