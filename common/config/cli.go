package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultViewsURL = "http://localhost:8085"
	defaultNodeURL  = "http://localhost:8080/api"
)

// CLIConfig is the tableviews CLI profile file.
type CLIConfig struct {
	CurrentProfile string                 `yaml:"current_profile" mapstructure:"current_profile"`
	Profiles       map[string]*CLIProfile `yaml:"profiles" mapstructure:"profiles"`
	Defaults       *CLIProfile            `yaml:"defaults" mapstructure:"defaults"`
	path           string
}

// CLIProfile holds the endpoints for one environment. ViewsURL serves
// /table-views; NodeURL serves the record endpoints (channels, forwards, ...).
type CLIProfile struct {
	ViewsURL string `yaml:"views_url" mapstructure:"views_url"`
	NodeURL  string `yaml:"node_url" mapstructure:"node_url"`
}

// DefaultCLI returns a config pointing at a local node.
func DefaultCLI() *CLIConfig {
	return &CLIConfig{
		CurrentProfile: "default",
		Profiles:       make(map[string]*CLIProfile),
		Defaults: &CLIProfile{
			ViewsURL: defaultViewsURL,
			NodeURL:  defaultNodeURL,
		},
	}
}

// LoadCLI reads config.yaml from dir, or from $TABLEVIEWS_CONFIG_DIR, or
// from ~/.tableviews. A missing file yields the defaults.
// TABLEVIEWS_VIEWS_URL and TABLEVIEWS_NODE_URL override the defaults.
func LoadCLI(dir string) (*CLIConfig, error) {
	if dir == "" {
		dir = os.Getenv("TABLEVIEWS_CONFIG_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".tableviews")
	}
	path := filepath.Join(dir, "config.yaml")

	v := viper.New()
	v.SetDefault("current_profile", "default")
	v.SetDefault("defaults.views_url", defaultViewsURL)
	v.SetDefault("defaults.node_url", defaultNodeURL)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	_ = v.BindEnv("defaults.views_url", "TABLEVIEWS_VIEWS_URL")
	_ = v.BindEnv("defaults.node_url", "TABLEVIEWS_NODE_URL")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read CLI config: %w", err)
		}
	}

	cfg := DefaultCLI()
	cfg.path = path
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CLI config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*CLIProfile)
	}
	return cfg, nil
}

// Path is the file Save writes to.
func (c *CLIConfig) Path() string {
	return c.path
}

// Save writes the config with owner-only permissions.
func (c *CLIConfig) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".tableviews", "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// SetProfile creates or updates a profile. Empty URLs keep the existing
// value.
func (c *CLIConfig) SetProfile(name, viewsURL, nodeURL string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("profile name is required")
	}
	p, ok := c.Profiles[name]
	if !ok {
		p = &CLIProfile{}
		c.Profiles[name] = p
	}
	if viewsURL != "" {
		p.ViewsURL = viewsURL
	}
	if nodeURL != "" {
		p.NodeURL = nodeURL
	}
	return c.Save()
}

// Use makes name the current profile.
func (c *CLIConfig) Use(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// ProfileNames returns the configured profile names in order.
func (c *CLIConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the endpoints for profile (current profile when empty),
// falling back to the defaults field by field.
func (c *CLIConfig) Resolve(profile string) CLIProfile {
	if profile == "" {
		profile = c.CurrentProfile
	}
	out := CLIProfile{}
	if c.Defaults != nil {
		out = *c.Defaults
	}
	if p, ok := c.Profiles[profile]; ok {
		if p.ViewsURL != "" {
			out.ViewsURL = p.ViewsURL
		}
		if p.NodeURL != "" {
			out.NodeURL = p.NodeURL
		}
	}
	return out
}
