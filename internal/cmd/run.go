package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msp-agents/msp/internal/config"
	"github.com/msp-agents/msp/internal/logging"
	"github.com/msp-agents/msp/internal/orchestrator"
)

var (
	runWorkdir string
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run <task description>",
	Short: "Run a task through the orchestrator",
	Long: `Run a task end to end: decompose it into subtasks, execute one
worker per subtask, validate the combined output, and rework failures.

Examples:
  msp run "Create a FastAPI service with CRUD operations"
  msp run --workdir ./build "Write documentation and run tests"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runWorkdir, "workdir", "w", ".", "working directory for scratchpads and bridges")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full result as JSON")
}

func runRun(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(runWorkdir, 0755); err != nil {
		return fmt.Errorf("creating workdir: %w", err)
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(runWorkdir, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logger.Close()
	}

	o := orchestrator.New(cfg, runWorkdir,
		orchestrator.WithLogger(logger),
		orchestrator.WithClarifier(promptClarifier),
	)
	result := o.Run(cmd.Context(), description)

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if result.Status != orchestrator.RunSuccess {
		return fmt.Errorf("run failed: %s", result.Error)
	}
	return nil
}

// promptClarifier asks the operator to answer a worker's question on
// the terminal.
func promptClarifier(question string) (string, error) {
	fmt.Printf("\nA worker needs clarification:\n  %s\n> ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
