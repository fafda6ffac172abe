// Command textworldd runs the text world engine server. Grounded on the
// teacher's cmd/nerd/main.go: a cobra root command, persistent flags for
// the data directory, and subcommands split one-per-file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "textworldd",
	Short: "textworldd runs a multi-user text world engine server",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the config's data directory")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
