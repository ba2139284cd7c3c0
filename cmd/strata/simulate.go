package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strataudio/strata/pkg/sim"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <graph-file>",
	Short: "Replay a parameter trajectory through a graph",
	Long: `Runs the deterministic offline simulator and prints the resulting
timeline as JSON. The trajectory file is a JSON array of keyframes:

  [{"atMs": 0, "values": {"threat": 0}}, {"atMs": 500, "values": {"threat": 80}}]`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		durationMs, _ := cmd.Flags().GetInt("duration")
		stepMs, _ := cmd.Flags().GetInt("step")
		trajPath, _ := cmd.Flags().GetString("trajectory")

		g, err := loadGraphFile(args[0])
		if err != nil {
			fmt.Printf("Error loading graph: %v\n", err)
			os.Exit(1)
		}

		var traj sim.Trajectory
		if trajPath != "" {
			data, err := os.ReadFile(trajPath)
			if err != nil {
				fmt.Printf("Error reading trajectory: %v\n", err)
				os.Exit(1)
			}
			if err := json.Unmarshal(data, &traj); err != nil {
				fmt.Printf("Error parsing trajectory: %v\n", err)
				os.Exit(1)
			}
		}

		timeline, err := sim.Simulate(g, traj, durationMs, stepMs)
		if err != nil {
			fmt.Printf("Simulation failed: %v\n", err)
			os.Exit(1)
		}

		out, err := json.MarshalIndent(timeline, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding timeline: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntP("duration", "d", 10000, "Total simulated time in milliseconds")
	simulateCmd.Flags().IntP("step", "s", sim.DefaultStepMs, "Sampling step in milliseconds")
	simulateCmd.Flags().StringP("trajectory", "f", "", "Path to a JSON trajectory file")
}
