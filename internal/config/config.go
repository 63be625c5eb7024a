// Package config loads the daemon configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/scriptdeck/scriptdeck/internal/ports"
)

// Config controls the scriptdeck daemon. All fields have working defaults;
// the configuration file is optional.
type Config struct {
	// Listen is the loopback address the UI connects to.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// Shell runs every spawned command via `<shell> -lc`, picking up the
	// user's login PATH the way their terminal would.
	Shell string `mapstructure:"shell" yaml:"shell"`

	// PackageManager is invoked as "<pm> run <script>" and "<pm> install".
	PackageManager string `mapstructure:"package_manager" yaml:"package_manager"`

	// ServerScripts name the scripts that get a pre-run environment cleanup.
	ServerScripts []string `mapstructure:"server_scripts" yaml:"server_scripts"`

	// DefaultPort is the dev-server port freed before server scripts start.
	DefaultPort int `mapstructure:"default_port" yaml:"default_port"`

	// ExtraPorts extends the well-known port set for batch operations.
	ExtraPorts []int `mapstructure:"extra_ports" yaml:"extra_ports"`

	// PortInspector selects the listener backend: "lsof" or "psutil".
	PortInspector string `mapstructure:"port_inspector" yaml:"port_inspector"`

	// SettingsPath overrides the per-user settings file location.
	SettingsPath string `mapstructure:"settings_path" yaml:"settings_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:         "127.0.0.1:7319",
		Shell:          DefaultShell(),
		PackageManager: "npm",
		ServerScripts:  []string{"dev", "start", "serve"},
		DefaultPort:    3000,
		ExtraPorts:     []int{5560, 8877},
		PortInspector:  "lsof",
	}
}

// DefaultShell prefers the user's login shell.
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	return "/bin/sh"
}

// DefaultPath places the config file next to the settings store.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(configDir, "scriptdeck", "config.yaml"), nil
}

// Load reads the configuration from path, falling back to DefaultPath when
// path is empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("shell", cfg.Shell)
	v.SetDefault("package_manager", cfg.PackageManager)
	v.SetDefault("server_scripts", cfg.ServerScripts)
	v.SetDefault("default_port", cfg.DefaultPort)
	v.SetDefault("extra_ports", cfg.ExtraPorts)
	v.SetDefault("port_inspector", cfg.PortInspector)
	v.SetDefault("settings_path", cfg.SettingsPath)

	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.PackageManager == "" {
		return fmt.Errorf("package_manager must not be empty")
	}
	if c.DefaultPort <= 0 || c.DefaultPort > 65535 {
		return fmt.Errorf("default_port %d out of range", c.DefaultPort)
	}
	for _, port := range c.ExtraPorts {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("extra port %d out of range", port)
		}
	}
	switch c.PortInspector {
	case "lsof", "psutil":
	default:
		return fmt.Errorf("unknown port_inspector %q", c.PortInspector)
	}
	return nil
}

// AllPorts is the well-known port set plus configured extras, deduplicated
// in order.
func (c Config) AllPorts() []int {
	seen := make(map[int]struct{}, len(ports.KnownPorts)+len(c.ExtraPorts))
	out := make([]int, 0, len(ports.KnownPorts)+len(c.ExtraPorts))
	for _, port := range ports.KnownPorts {
		if _, dup := seen[port]; dup {
			continue
		}
		seen[port] = struct{}{}
		out = append(out, port)
	}
	for _, port := range c.ExtraPorts {
		if _, dup := seen[port]; dup {
			continue
		}
		seen[port] = struct{}{}
		out = append(out, port)
	}
	return out
}
