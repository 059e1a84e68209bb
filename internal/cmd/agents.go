package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msp-agents/msp/internal/agent"
	"github.com/msp-agents/msp/internal/config"
)

var agentsWorkdir string

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the workers available in the agents directory",
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().StringVarP(&agentsWorkdir, "workdir", "w", ".", "working directory the agents path resolves against")
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	agentsDir := cfg.Paths.ResolveAgentsDir(agentsWorkdir)
	specs, err := agent.Discover(agentsDir)
	if err != nil {
		return fmt.Errorf("discovering workers: %w", err)
	}

	if len(specs) == 0 {
		fmt.Printf("No workers found in %s\n", agentsDir)
		return nil
	}

	fmt.Printf("Workers in %s:\n", agentsDir)
	for _, spec := range specs {
		bridges := ""
		if spec.Config.AcceptsBridges {
			bridges = ", accepts bridges"
		}
		fmt.Printf("  %-12s command=%s, capabilities=[%s]%s\n",
			spec.Name, spec.Config.Command,
			strings.Join(spec.Config.Capabilities, ", "), bridges)
	}
	return nil
}
