package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strataudio/strata/internal/presentation/tui"
	"github.com/strataudio/strata/pkg/graph"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:   "describe <graph-file>",
	Short: "Print a readable summary of a graph",
	Long:  `Loads a graph file and renders a human-readable summary of its states, layers, parameters and transitions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g, err := loadGraphFile(args[0])
		if err != nil {
			fmt.Printf("Error loading graph: %v\n", err)
			os.Exit(1)
		}

		render := tui.NewRenderer()
		out, err := render(describeMarkdown(g))
		if err != nil {
			fmt.Printf("Error rendering summary: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(out)
	},
}

func describeMarkdown(g graph.StateGraph) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", g.Name)
	if g.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", g.Description)
	}

	sb.WriteString("## States\n\n")
	for _, s := range g.States {
		marker := ""
		if s.IsInitial {
			marker = " *(initial)*"
		}
		layers := "silence"
		if len(s.Audio.ActiveLayers) > 0 {
			layers = strings.Join(s.Audio.ActiveLayers, ", ")
		}
		fmt.Fprintf(&sb, "- **%s**%s: %s\n", s.Name, marker, layers)
	}

	if len(g.Parameters) > 0 {
		sb.WriteString("\n## Parameters\n\n")
		for _, p := range g.Parameters {
			rng := ""
			if p.Min != nil && p.Max != nil {
				rng = fmt.Sprintf(" [%g..%g]", *p.Min, *p.Max)
			}
			fmt.Fprintf(&sb, "- `%s` (%s)%s, default %s\n", p.Name, p.Type, rng, p.Default.String())
		}
	}

	if len(g.Transitions) > 0 {
		sb.WriteString("\n## Transitions\n\n")
		for _, t := range g.Transitions {
			from, _ := g.State(t.FromStateID)
			to, _ := g.State(t.ToStateID)
			fmt.Fprintf(&sb, "- %s → %s (%s, %dms)", from.Name, to.Name, t.Type, t.DurationMs)
			if len(t.Conditions) > 0 {
				labels := make([]string, len(t.Conditions))
				for i, c := range t.Conditions {
					if c.Kind == graph.ConditionStateDuration {
						labels[i] = fmt.Sprintf("after %gms", c.ThresholdMs)
						continue
					}
					labels[i] = fmt.Sprintf("%s %s %s", c.Parameter, c.Operator, c.Value.String())
				}
				sep := " AND "
				if t.Logic == graph.LogicOr {
					sep = " OR "
				}
				fmt.Fprintf(&sb, " when %s", strings.Join(labels, sep))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
