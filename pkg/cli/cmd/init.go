package cmd

import (
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/spiceai/plasmagym/pkg/config"
)

var forceFlag bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a plasmagym.yaml with the default configuration to the current directory",
	Example: `
plasmagym init
plasmagym init --force
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if err := config.WriteDefaultConfiguration(configPath, forceFlag); err != nil {
			return err
		}

		cmd.Println(aurora.Green("Configuration initialized at " + config.GetAppRelativePath(configPath)))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing configuration")
	initCmd.Flags().BoolP("help", "h", false, "Print this help message")
	RootCmd.AddCommand(initCmd)
}
