package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spiceai/plasmagym/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Plasma Gym CLI version",
	Example: `
plasmagym version
`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("CLI version: %s\n", version.Version())
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
