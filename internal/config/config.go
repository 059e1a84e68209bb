package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete msp configuration
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Paths        PathsConfig        `mapstructure:"paths"`
}

// OrchestratorConfig controls run execution behavior
type OrchestratorConfig struct {
	// WorkerTimeoutSeconds bounds a single worker invocation (default: 300)
	WorkerTimeoutSeconds int `mapstructure:"worker_timeout_seconds"`
	// PollIntervalMs is how often the status poller refreshes scratchpads (in milliseconds)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// PortRangeStart is the first port tried for the clarification listener (default: 8000)
	PortRangeStart int `mapstructure:"port_range_start"`
	// PortRangeEnd is the last port tried for the clarification listener (default: 9000)
	PortRangeEnd int `mapstructure:"port_range_end"`
	// AllowedTools is the tool allowance advertised to workers
	AllowedTools []string `mapstructure:"allowed_tools"`
	// MaxScratchpadChars is the scratchpad history budget in characters (default: 8192)
	MaxScratchpadChars int `mapstructure:"max_scratchpad_chars"`
	// ValidationLevel is passed to the validation worker
	// Options: "basic", "standard", "strict"
	ValidationLevel string `mapstructure:"validation_level"`
	// MaxReworkRounds limits full validate-rework cycles per run (default: 1)
	MaxReworkRounds int `mapstructure:"max_rework_rounds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// PathsConfig controls where msp finds workers and stores run state
type PathsConfig struct {
	// AgentsDir is the directory scanned for worker definitions.
	// Relative paths resolve against the run's workdir.
	AgentsDir string `mapstructure:"agents_dir"`
	// SharedDirName is the workdir subdirectory holding message bridges
	SharedDirName string `mapstructure:"shared_dir_name"`
}

// WorkerTimeout returns the worker timeout as a time.Duration
func (c *OrchestratorConfig) WorkerTimeout() time.Duration {
	return time.Duration(c.WorkerTimeoutSeconds) * time.Second
}

// PollInterval returns the poller refresh interval as a time.Duration
func (c *OrchestratorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ResolveAgentsDir returns the agents directory resolved against baseDir
// when the configured path is relative.
func (p *PathsConfig) ResolveAgentsDir(baseDir string) string {
	if filepath.IsAbs(p.AgentsDir) {
		return p.AgentsDir
	}
	return filepath.Join(baseDir, p.AgentsDir)
}

// SharedDir returns the bridge directory under baseDir.
func (p *PathsConfig) SharedDir(baseDir string) string {
	return filepath.Join(baseDir, p.SharedDirName)
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			WorkerTimeoutSeconds: 300, // 5 minutes per worker
			PollIntervalMs:       1000,
			PortRangeStart:       8000,
			PortRangeEnd:         9000,
			AllowedTools:         []string{"file_read", "file_write", "shell"},
			MaxScratchpadChars:   8192,
			ValidationLevel:      "standard",
			MaxReworkRounds:      1,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Paths: PathsConfig{
			AgentsDir:     filepath.Join("agents", "available"),
			SharedDirName: "shared",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Orchestrator defaults
	viper.SetDefault("orchestrator.worker_timeout_seconds", defaults.Orchestrator.WorkerTimeoutSeconds)
	viper.SetDefault("orchestrator.poll_interval_ms", defaults.Orchestrator.PollIntervalMs)
	viper.SetDefault("orchestrator.port_range_start", defaults.Orchestrator.PortRangeStart)
	viper.SetDefault("orchestrator.port_range_end", defaults.Orchestrator.PortRangeEnd)
	viper.SetDefault("orchestrator.allowed_tools", defaults.Orchestrator.AllowedTools)
	viper.SetDefault("orchestrator.max_scratchpad_chars", defaults.Orchestrator.MaxScratchpadChars)
	viper.SetDefault("orchestrator.validation_level", defaults.Orchestrator.ValidationLevel)
	viper.SetDefault("orchestrator.max_rework_rounds", defaults.Orchestrator.MaxReworkRounds)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	// Paths defaults
	viper.SetDefault("paths.agents_dir", defaults.Paths.AgentsDir)
	viper.SetDefault("paths.shared_dir_name", defaults.Paths.SharedDirName)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "msp")
	}
	// Fall back to ~/.config/msp
	home, err := os.UserHomeDir()
	if err != nil {
		return ".msp"
	}
	return filepath.Join(home, ".config", "msp")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidValidationLevels returns the list of valid validation levels
func ValidValidationLevels() []string {
	return []string{"basic", "standard", "strict"}
}

// IsValidValidationLevel checks if the given level is valid
func IsValidValidationLevel(level string) bool {
	for _, valid := range ValidValidationLevels() {
		if level == valid {
			return true
		}
	}
	return false
}
