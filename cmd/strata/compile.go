package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strataudio/strata/pkg/compiler"
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile <graph-file>",
	Short: "Compile a graph into middleware artifacts",
	Long: `Lowers a graph file into native assets for one target, or for every
target with --target all. Artifacts are written under the output directory,
one subdirectory per target.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		targetName, _ := cmd.Flags().GetString("target")
		outDir, _ := cmd.Flags().GetString("out")

		g, err := loadGraphFile(args[0])
		if err != nil {
			fmt.Printf("Error loading graph: %v\n", err)
			os.Exit(1)
		}

		c := compiler.New()

		if targetName == "all" {
			sets, errs := c.CompileAll(g)
			for _, set := range sets {
				if err := writeArtifacts(outDir, set); err != nil {
					fmt.Printf("Error writing artifacts: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("%s: %d artifacts\n", set.Target, len(set.Artifacts))
			}
			for _, terr := range errs {
				fmt.Printf("%s: FAILED (%s)\n", terr.Target, terr.Message)
			}
			if len(errs) == len(compiler.Targets()) {
				os.Exit(1)
			}
			return
		}

		target, err := compiler.ParseTarget(targetName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		set, err := c.Compile(g, target)
		if err != nil {
			fmt.Printf("Compile failed: %v\n", err)
			os.Exit(1)
		}
		// Single-target compiles namespace their output too, so switching to
		// --target all later never reshuffles paths.
		for i := range set.Artifacts {
			set.Artifacts[i].Path = string(target) + "/" + set.Artifacts[i].Path
		}
		if err := writeArtifacts(outDir, set); err != nil {
			fmt.Printf("Error writing artifacts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d artifacts written to %s\n", set.Target, len(set.Artifacts), outDir)
	},
}

func writeArtifacts(outDir string, set compiler.ArtifactSet) error {
	for _, a := range set.Artifacts {
		path := filepath.Join(outDir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringP("target", "t", "all", "Target to compile for: wwise, fmod, unity, unreal, puredata, webaudio or all")
	compileCmd.Flags().StringP("out", "o", "build", "Output directory for artifacts")
}
