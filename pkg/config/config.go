package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for smash, whether run as the local
// cmd/smash client or the cmd/smashd server.
type Config struct {
	// Server settings
	Port       int    `mapstructure:"port"`
	Host       string `mapstructure:"host"`
	StaticPath string `mapstructure:"static_path"`

	// Authentication
	BasicAuthUsername string `mapstructure:"username"`
	BasicAuthPassword string `mapstructure:"password"`

	// Directories
	ControlDir string `mapstructure:"control_dir"`

	// Terminal defaults
	Command     []string `mapstructure:"command"`
	DefaultCols int      `mapstructure:"default_cols"`
	DefaultRows int      `mapstructure:"default_rows"`
	DefaultTerm string   `mapstructure:"default_term"`

	// Painter settings
	RepaintDelayMS int `mapstructure:"repaint_delay_ms"`

	// Timeouts and intervals
	CleanupInterval       time.Duration `mapstructure:"cleanup_interval"`
	SessionIdleTimeout    time.Duration `mapstructure:"session_idle_timeout"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	WebSocketPingInterval time.Duration `mapstructure:"websocket_ping_interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	controlDir := filepath.Join(homeDir, ".smash", "control")

	return &Config{
		Port: 4020,
		Host: "",

		ControlDir: controlDir,

		Command:     []string{"/bin/sh"},
		DefaultCols: 80,
		DefaultRows: 24,
		DefaultTerm: "xterm-256color",

		RepaintDelayMS: 10,

		CleanupInterval:       5 * time.Minute,
		SessionIdleTimeout:    30 * time.Minute,
		RequestTimeout:        10 * time.Second,
		WebSocketPingInterval: 30 * time.Second,
	}
}

// RepaintDelay returns RepaintDelayMS as a time.Duration.
func (c *Config) RepaintDelay() time.Duration {
	return time.Duration(c.RepaintDelayMS) * time.Millisecond
}

// LoadFromEnv loads configuration from environment variables.
// SMASH_USERNAME and SMASH_PASSWORD only fill fields that are still
// empty; PORT and SMASH_CONTROL_DIR override whatever value is set.
func (c *Config) LoadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &c.Port); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid PORT value: %s\n", port)
		}
	}

	if username := os.Getenv("SMASH_USERNAME"); username != "" && c.BasicAuthUsername == "" {
		c.BasicAuthUsername = username
	}

	if password := os.Getenv("SMASH_PASSWORD"); password != "" && c.BasicAuthPassword == "" {
		c.BasicAuthPassword = password
	}

	if controlDir := os.Getenv("SMASH_CONTROL_DIR"); controlDir != "" {
		c.ControlDir = controlDir
	}
}

// Validate checks the configuration for internally inconsistent or
// out-of-range values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DefaultCols < 1 || c.DefaultCols > 1000 {
		return fmt.Errorf("invalid default columns: %d", c.DefaultCols)
	}
	if c.DefaultRows < 1 || c.DefaultRows > 1000 {
		return fmt.Errorf("invalid default rows: %d", c.DefaultRows)
	}
	if c.RepaintDelayMS < 0 {
		return fmt.Errorf("invalid repaint delay: %dms", c.RepaintDelayMS)
	}
	if len(c.Command) == 0 {
		return fmt.Errorf("command cannot be empty")
	}
	return nil
}

// HasAuth returns true if basic auth credentials are configured.
func (c *Config) HasAuth() bool {
	return c.BasicAuthUsername != "" && c.BasicAuthPassword != ""
}
