package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/BDNK1/flowendpoint/plugins/flight"
	"github.com/BDNK1/flowendpoint/runtime"
)

var (
	lookupDate string
	lookupType string
	lookupTime string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Run one flight lookup and print the kept rows",
	Long: `Lookup calls the flight selection API once with the configured base URL
and prints the deduplicated rows departing at least 12 hours after --time
(default now) as JSON.

Example:
  flowendpoint lookup --date 2026-01-13 --type D
  flowendpoint lookup --date 2026-01-13 --type I --time 2026-01-12T08:00:00Z
`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

const dateFlagUsage = "Flight date (YYYY-MM-DD, or MM-DD-YYYY sent as is)"

func init() {
	lookupCmd.Flags().StringVar(&lookupDate, "date", "", dateFlagUsage)
	lookupCmd.Flags().StringVar(&lookupType, "type", "", "Flight type (D or I)")
	lookupCmd.Flags().StringVar(&lookupTime, "time", "", "Reference time; naive values are read as UTC")
	_ = lookupCmd.MarkFlagRequired("date")
	_ = lookupCmd.MarkFlagRequired("type")
}

func runLookup(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := runtime.NewLogger(os.Stderr, settings.Server.LogFormat, settings.Server.LogLevel, serviceName, settings.Server.Env)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), settings.Flight.Timeout()+settings.Server.ShutdownTimeout)
	defer cancel()

	rows, err := lookup(ctx, flight.NewClient(settings.Flight, l), runtime.FlightQuery{
		FlightDate: lookupDate,
		FlightType: lookupType,
		Time:       lookupTime,
	}, l)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func lookup(ctx context.Context, client runtime.FlightLookup, query runtime.FlightQuery, l *slog.Logger) ([]runtime.FlightRow, error) {
	rows, err := client.Lookup(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Flight lookup failed", runtime.Error(err))
		return nil, err
	}
	return rows, nil
}
