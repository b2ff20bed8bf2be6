package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultVastBinary is the vastai CLI executable used when the config
	// does not name one.
	DefaultVastBinary = "vastai"

	// CompletionMarker is the line the bootstrap prints when provisioning
	// finished. Log monitoring scans for it.
	CompletionMarker = "=== Provisioning Complete ==="

	configFileName = "config.toml"
	appDirName     = "dflctl"
)

// SearchDefaults holds default parameters for offer searches.
type SearchDefaults struct {
	Query string `toml:"query"`
	Limit int    `toml:"limit"`
	Sort  string `toml:"sort"`
	Order string `toml:"order"`
}

// TemplateDefaults holds defaults for template creation.
type TemplateDefaults struct {
	Name   string `toml:"name"`
	Image  string `toml:"image"`
	Env    string `toml:"env"`
	DiskGB int    `toml:"disk_gb"`
}

// BootstrapConfig holds settings for on-instance provisioning.
type BootstrapConfig struct {
	Root        string `toml:"root"`
	Workspace   string `toml:"workspace"`
	CondaEnv    string `toml:"conda_env"`
	VNCDisplay  string `toml:"vnc_display"`
	VNCPort     int    `toml:"vnc_port"`
	NoVNCPort   int    `toml:"novnc_port"`
	PortalPort  int    `toml:"portal_port"`
	DFLRepo     string `toml:"dfl_repo"`
	DFLDir      string `toml:"dfl_dir"`
	MVEDir      string `toml:"mve_dir"`
	Resolution  string `toml:"resolution"`
	ColorDepth  int    `toml:"color_depth"`
	VNCPassword string `toml:"vnc_password"`
}

// Config is the dflctl configuration, loaded from config.toml with
// environment variable overrides layered on top.
type Config struct {
	APIKey     string           `toml:"api_key"`
	OwnerID    string           `toml:"owner_id"`
	VastBinary string           `toml:"vastai_binary"`
	Search     SearchDefaults   `toml:"search"`
	Template   TemplateDefaults `toml:"template"`
	Bootstrap  BootstrapConfig  `toml:"bootstrap"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VastBinary: DefaultVastBinary,
		Search: SearchDefaults{
			Query: "verified=true rentable=true",
			Limit: 5,
			Sort:  "dph_total",
			Order: "asc",
		},
		Template: TemplateDefaults{
			Name:   "DeepFaceLab Desktop",
			Image:  "mannyj37/dfl-desktop:latest",
			Env:    "-p 5901 -p 11111 -e VNC_PASSWORD=deepfacelab",
			DiskGB: 50,
		},
		Bootstrap: BootstrapConfig{
			Root:        "/",
			Workspace:   "/workspace",
			CondaEnv:    "/opt/conda/envs/deepfacelab",
			VNCDisplay:  ":1",
			VNCPort:     5901,
			NoVNCPort:   6901,
			PortalPort:  11111,
			DFLRepo:     "https://github.com/iperov/DeepFaceLab.git",
			DFLDir:      "/workspace/DeepFaceLab",
			MVEDir:      "/workspace/MachineVideoEditor",
			Resolution:  "1920x1080",
			ColorDepth:  24,
			VNCPassword: "deepfacelab",
		},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.VastBinary == "" {
		return fmt.Errorf("vastai_binary cannot be empty")
	}
	if c.Search.Limit < 1 {
		return fmt.Errorf("search.limit must be at least 1 (got %d)", c.Search.Limit)
	}
	order := strings.ToLower(c.Search.Order)
	if order != "asc" && order != "desc" {
		return fmt.Errorf("search.order must be asc or desc (got %q)", c.Search.Order)
	}
	if c.Template.DiskGB < 10 {
		return fmt.Errorf("template.disk_gb must be at least 10 (got %d)", c.Template.DiskGB)
	}
	if err := c.Bootstrap.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the bootstrap settings.
func (b *BootstrapConfig) Validate() error {
	for name, port := range map[string]int{
		"vnc_port":    b.VNCPort,
		"novnc_port":  b.NoVNCPort,
		"portal_port": b.PortalPort,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("bootstrap.%s out of range: %d", name, port)
		}
	}
	if !filepath.IsAbs(b.Workspace) {
		return fmt.Errorf("bootstrap.workspace must be an absolute path (got %q)", b.Workspace)
	}
	return nil
}

// applyEnv layers environment variable overrides onto the config.
func (c *Config) applyEnv() {
	if key := os.Getenv("VAST_API_KEY"); key != "" {
		c.APIKey = key
	}
	if owner := os.Getenv("VAST_OWNER_ID"); owner != "" {
		c.OwnerID = owner
	}
	if pw := os.Getenv("VNC_PASSWORD"); pw != "" {
		c.Bootstrap.VNCPassword = pw
	}
}

// Load reads config.toml from dir, fills in defaults, applies env overrides
// and validates the result. A missing file is not an error; defaults apply.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Paths holds the configured directories.
type Paths struct {
	ConfigDir string
	StateDir  string
}

// DefaultPaths returns the per-user path configuration.
func DefaultPaths() *Paths {
	configBase, err := os.UserConfigDir()
	if err != nil {
		configBase = "/etc"
	}

	stateBase := os.Getenv("XDG_STATE_HOME")
	if stateBase == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/root"
		}
		stateBase = filepath.Join(home, ".local", "state")
	}

	return &Paths{
		ConfigDir: filepath.Join(configBase, appDirName),
		StateDir:  filepath.Join(stateBase, appDirName),
	}
}
