package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mermaid "github.com/strataudio/strata/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <graph-file>",
	Short: "Export the state graph visualization",
	Long:  `Loads a graph file and outputs a Mermaid diagram (graph TD) of its states and guarded transitions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g, err := loadGraphFile(args[0])
		if err != nil {
			fmt.Printf("Error loading graph: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(mermaid.GenerateMermaid(g, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
