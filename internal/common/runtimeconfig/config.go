// Package runtimeconfig loads process-wide settings for the swarm binary
// itself (as opposed to a swarm config document): where to keep session
// state, which git binary to shell out to, and how verbosely to log.
package runtimeconfig

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds process-level settings, independent of any single swarm
// config document.
type Config struct {
	Home       string `mapstructure:"home"`
	LogLevel   string `mapstructure:"logLevel"`
	LogFormat  string `mapstructure:"logFormat"`
	GitBinary  string `mapstructure:"gitBinary"`
	RootDirEnv string `mapstructure:"rootDirEnv"`
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("home", filepath.Join(home, ".swarm"))
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "text")
	v.SetDefault("gitBinary", "git")
}

// Load reads process-level configuration from SWARM_-prefixed environment
// variables, falling back to sane defaults. There is no config file for
// this layer; per-run behavior is configured by the swarm config document
// itself, not the binary's own settings.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SWARM")
	v.AutomaticEnv()
	// CLAUDE_SWARM_HOME is the externally documented name for the session
	// root; SWARM_HOME is accepted as a shorter alias. The documented name
	// wins when both are set.
	_ = v.BindEnv("home", "CLAUDE_SWARM_HOME", "SWARM_HOME")
	_ = v.BindEnv("logLevel", "SWARM_LOG_LEVEL")
	_ = v.BindEnv("logFormat", "SWARM_LOG_FORMAT")
	_ = v.BindEnv("gitBinary", "SWARM_GIT_BIN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Home, 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SessionsDir returns the root directory under which all session state is
// stored: $SWARM_HOME/sessions.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Home, "sessions")
}

// WorktreesDir returns the root directory under which managed git
// worktrees are created: $SWARM_HOME/worktrees.
func (c *Config) WorktreesDir() string {
	return filepath.Join(c.Home, "worktrees")
}
