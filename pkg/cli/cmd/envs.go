package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/util"
)

type environmentRow struct {
	Id              string `csv:"id"`
	MaxEpisodeSteps int    `csv:"max_episode_steps"`
	RenderModes     string `csv:"render_modes"`
	RenderFPS       int    `csv:"render_fps"`
}

var envsCmd = &cobra.Command{
	Use:     "envs",
	Aliases: []string{"environments"},
	Short:   "List registered environments",
	Example: `
plasmagym envs
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([]*environmentRow, 0)
		for _, id := range environment.Registered() {
			spec, err := environment.GetSpec(id)
			if err != nil {
				return err
			}

			modes := make([]string, 0, len(spec.Metadata.RenderModes))
			for _, m := range spec.Metadata.RenderModes {
				modes = append(modes, string(m))
			}

			rows = append(rows, &environmentRow{
				Id:              spec.Id,
				MaxEpisodeSteps: spec.MaxEpisodeSteps,
				RenderModes:     strings.Join(modes, " "),
				RenderFPS:       spec.Metadata.RenderFPS,
			})
		}

		if len(rows) == 0 {
			cmd.Println("No environments registered")
			return nil
		}

		return util.MarshalAndPrintTable(cmd.OutOrStdout(), rows)
	},
}

func init() {
	envsCmd.Flags().BoolP("help", "h", false, "Print this help message")
	RootCmd.AddCommand(envsCmd)
}
