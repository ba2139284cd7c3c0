package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strataudio/strata/pkg/graph"
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new <preset>",
	Short: "Create a graph file from a preset",
	Long: fmt.Sprintf(`Instantiates one of the built-in presets (%s) and writes it
as a YAML graph file ready for editing.`, strings.Join(graph.Presets(), ", ")),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")

		g, err := graph.FromPreset(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		data, err := graph.MarshalYAML(g)
		if err != nil {
			fmt.Printf("Error encoding graph: %v\n", err)
			os.Exit(1)
		}

		if out == "-" {
			fmt.Print(string(data))
			return
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			fmt.Printf("Error writing %s: %v\n", out, err)
			os.Exit(1)
		}
		fmt.Printf("Created %s from preset %q\n", out, args[0])
	},
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringP("out", "o", "graph.yaml", "Output file, or - for stdout")
}
