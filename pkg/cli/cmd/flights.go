package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiceai/plasmagym/pkg/api"
	"github.com/spiceai/plasmagym/pkg/config"
	"github.com/spiceai/plasmagym/pkg/util"
)

type flightRow struct {
	Id          string `csv:"id"`
	Environment string `csv:"environment"`
	Episodes    string `csv:"episodes"`
	Complete    bool   `csv:"complete"`
	Error       string `csv:"error"`
}

type flightEpisodeRow struct {
	Episode uint64 `csv:"episode"`
	Steps   uint64 `csv:"steps"`
	Score   string `csv:"score"`
	Seconds string `csv:"seconds"`
	Video   string `csv:"video"`
	Error   string `csv:"error"`
}

var flightsCmd = &cobra.Command{
	Use:   "flights [flight id]",
	Short: "Retrieve flights from a running 'plasmagym run --http-port'",
	Example: `
plasmagym flights --http-port 8000
plasmagym flights 6f1c2d2e-... --http-port 8000
`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := newViper()
		setChangedFlags(cmd.Flags(), v, map[string]string{"http-port": "http_port"})
		runConfig, err := config.LoadRunConfiguration(v, config.AppPath())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if runConfig.HttpPort == 0 {
			return fmt.Errorf("http_port is not configured")
		}

		serverBaseUrl := runConfig.ServerBaseUrl()
		client := &http.Client{Timeout: 5 * time.Second}
		if err := util.IsServerHealthy(serverBaseUrl, client); err != nil {
			return fmt.Errorf("failed to reach %s. is 'plasmagym run' serving? %w", serverBaseUrl, err)
		}

		if len(args) == 0 {
			flights := make([]*api.Flight, 0)
			if err := getJson(client, fmt.Sprintf("%s/api/v0.1/flights", serverBaseUrl), &flights); err != nil {
				return fmt.Errorf("failed to get flights: %w", err)
			}

			rows := make([]*flightRow, 0, len(flights))
			for _, f := range flights {
				rows = append(rows, &flightRow{
					Id:          f.Id,
					Environment: f.Environment,
					Episodes:    fmt.Sprintf("%d/%d", len(f.Episodes), f.ExpectedEpisodes),
					Complete:    f.Complete,
					Error:       f.Error,
				})
			}
			return util.MarshalAndPrintTable(cmd.OutOrStdout(), rows)
		}

		episodes := make([]*api.Episode, 0)
		if err := getJson(client, fmt.Sprintf("%s/api/v0.1/flights/%s/episodes", serverBaseUrl, args[0]), &episodes); err != nil {
			return fmt.Errorf("failed to get episodes of flight %s: %w", args[0], err)
		}

		rows := make([]*flightEpisodeRow, 0, len(episodes))
		for _, e := range episodes {
			rows = append(rows, &flightEpisodeRow{
				Episode: e.Episode,
				Steps:   e.Steps,
				Score:   fmt.Sprintf("%.3f", e.Score),
				Seconds: fmt.Sprintf("%d", e.End-e.Start),
				Video:   e.Video,
				Error:   e.Error,
			})
		}
		return util.MarshalAndPrintTable(cmd.OutOrStdout(), rows)
	},
}

func getJson(client *http.Client, url string, data interface{}) error {
	response, err := client.Get(url)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", response.Status, string(body))
	}

	return json.Unmarshal(body, data)
}

func init() {
	flightsCmd.Flags().Uint("http-port", 0, "Port of the running flight server")
	flightsCmd.Flags().BoolP("help", "h", false, "Print this help message")
	RootCmd.AddCommand(flightsCmd)
}
