package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spiceai/plasmagym/pkg/config"
	"github.com/spiceai/plasmagym/pkg/diagnostics"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Print a report of the configuration, environments and video setup",
	Example: `
plasmagym diagnostics
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runConfig, err := config.LoadRunConfiguration(newViper(), config.AppPath())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		report, err := diagnostics.GenerateReport(runConfig)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	diagnosticsCmd.Flags().BoolP("help", "h", false, "Print this help message")
	RootCmd.AddCommand(diagnosticsCmd)
}
