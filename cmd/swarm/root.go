package main

import (
	"github.com/spf13/cobra"
)

// toolVersion is overridden at build time via -ldflags.
var toolVersion = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "swarm",
		Short: "Run a declarative multi-agent swarm",
		Long: `swarm orchestrates a team of LLM agents described by a config
document: it validates the connection graph, optionally checks out git
worktrees, wires up an MCP topology so agents can delegate to each
other, and launches the main agent under supervision.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newStartCommand(),
		newMCPServeCommand(),
		newRestoreCommand(),
		newGenerateCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the swarm version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(toolVersion)
		},
	}
}
