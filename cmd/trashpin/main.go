package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set at build time via -ldflags
var version = "dev"

var configDir string

func main() {
	root := &cobra.Command{
		Use:   "trashpin",
		Short: "Trash report map backend",
		Long: "trashpin runs the trash report map core: seed markers, user\n" +
			"reports, the location acquisition cascade and the renderer bridge.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory containing trashpin.cfg.json")

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
