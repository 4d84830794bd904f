// Command stampwise is the CLI shell: it wires config, logging,
// rasterization, the page coordinator, and the compositor together into
// the `stamp` and `watch` subcommands. It replaces the teacher's bare
// flag-based main.go now that there are two real subcommands instead of
// one flat flag set.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var synthetic bool

	root := &cobra.Command{
		Use:           "stampwise",
		Short:         "Locate whitespace on PDF pages and stamp a numbered piece marker into it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "stampwise.toml", "path to config file (TOML)")
	root.PersistentFlags().BoolVar(&synthetic, "synthetic", false, "debug only: rasterize blank/patterned pages instead of shelling out to a real renderer")

	root.AddCommand(newStampCmd(&configPath, &synthetic))
	root.AddCommand(newWatchCmd(&configPath, &synthetic))
	return root
}
