package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata is an adaptive audio state machine engine and compiler",
	Long: `Strata models game music as a graph of audio states with guarded
transitions, simulates it offline, and compiles it into native assets for
Wwise, FMOD, Unity, Unreal, Pure Data and Web Audio.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
