package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/msp-agents/msp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify msp configuration",
	Long: `View or modify msp configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/msp/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("orchestrator:")
	fmt.Printf("  worker_timeout_seconds: %d\n", cfg.Orchestrator.WorkerTimeoutSeconds)
	fmt.Printf("  poll_interval_ms: %d\n", cfg.Orchestrator.PollIntervalMs)
	fmt.Printf("  port_range_start: %d\n", cfg.Orchestrator.PortRangeStart)
	fmt.Printf("  port_range_end: %d\n", cfg.Orchestrator.PortRangeEnd)
	fmt.Printf("  allowed_tools: [%s]\n", strings.Join(cfg.Orchestrator.AllowedTools, ", "))
	fmt.Printf("  max_scratchpad_chars: %d\n", cfg.Orchestrator.MaxScratchpadChars)
	fmt.Printf("  validation_level: %s\n", cfg.Orchestrator.ValidationLevel)
	fmt.Printf("  max_rework_rounds: %d\n", cfg.Orchestrator.MaxReworkRounds)

	fmt.Println("logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)

	fmt.Println("paths:")
	fmt.Printf("  agents_dir: %s\n", cfg.Paths.AgentsDir)
	fmt.Printf("  shared_dir_name: %s\n", cfg.Paths.SharedDirName)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# msp configuration

orchestrator:
  # Maximum runtime per worker process in seconds
  worker_timeout_seconds: 300
  # How often the status poller refreshes scratchpad snapshots
  poll_interval_ms: 1000
  # Port range probed for the clarification listener
  port_range_start: 8000
  port_range_end: 9000
  # Tools workers are allowed to use
  allowed_tools: [file_read, file_write, shell]
  # Scratchpad history budget in characters
  max_scratchpad_chars: 8192
  # Validation strictness: basic, standard, or strict
  validation_level: standard
  # Validate-rework cycles per run
  max_rework_rounds: 1

logging:
  enabled: true
  # debug, info, warn, or error
  level: info

paths:
  # Directory scanned for worker definitions, relative to the workdir
  agents_dir: agents/available
  # Workdir subdirectory holding message bridges
  shared_dir_name: shared
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Default path: %s (not created)\n", configFile)
	}

	fmt.Println("\nSearch paths:")
	fmt.Printf("  1. %s\n", configFile)
	fmt.Printf("  2. $HOME/.config/msp/config.yaml\n")
	fmt.Printf("  3. ./config.yaml (current directory)\n")
	fmt.Println("\nEnvironment variables: MSP_* (e.g., MSP_ORCHESTRATOR_VALIDATION_LEVEL)")

	return nil
}
