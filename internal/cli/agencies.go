package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/dto"
)

// ListCmd returns the command printing the dynamically added agencies.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agencies added at runtime",
		Long: `List the agencies added to a running pool through the control plane.

Agencies loaded from the catalog at startup are not included.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
	cmd.Flags().Bool("json", false, "print the raw agency records as JSON")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	var res dto.ListAgenciesResponse
	if err := call(cmd, dto.ActionAgencies, nil, &res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Agencies)
	}

	if len(res.Agencies) == 0 {
		fmt.Fprintln(out, "no agencies added")
		return nil
	}
	for _, a := range res.Agencies {
		fmt.Fprintf(out, "%s\t%s\n", a.ID, channels(a))
	}
	return nil
}

func channels(a models.AgencyInfo) string {
	var parts []string
	for _, kind := range models.Kinds {
		if a.URLFor(kind) != "" {
			parts = append(parts, string(kind))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// AddCmd returns the command adding one agency to a running pool.
func AddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <feed-id>",
		Short: "Add an agency to a running pool",
		Long: `Add an agency to a running pool and start polling it.

Usage:
  ingestctl add f-test~rt --vehicles https://example.test/vp
  ingestctl add --file agency.json

Adding an id that is already polled is reported, not treated as a failure.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAdd,
	}

	cmd.Flags().String("file", "", "read the agency record from a JSON file")
	cmd.Flags().String("vehicles", "", "vehicle positions URL")
	cmd.Flags().String("trips", "", "trip updates URL")
	cmd.Flags().String("alerts", "", "alerts URL")
	cmd.Flags().String("auth-type", "", "credential placement: header or url")
	cmd.Flags().String("auth-header", "", "header name for header auth")
	cmd.Flags().String("password", "", "single credential")
	cmd.Flags().StringSlice("rotate", nil, "rotation credentials, picked at random per cycle")
	cmd.Flags().Float64("fetch-interval", 0, "advisory fetch interval in seconds")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	info, err := agencyFromFlags(cmd, args)
	if err != nil {
		return err
	}

	var res dto.AddAgencyResponse
	if err := call(cmd, dto.ActionAddAgency, info, &res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", info.ID, res.Status)
	return nil
}

func agencyFromFlags(cmd *cobra.Command, args []string) (models.AgencyInfo, error) {
	var info models.AgencyInfo

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return info, fmt.Errorf("read agency file: %w", err)
		}
		if err := json.Unmarshal(raw, &info); err != nil {
			return info, fmt.Errorf("parse agency file: %w", err)
		}
	}

	if len(args) == 1 {
		info.ID = args[0]
	}
	if info.ID == "" {
		return info, fmt.Errorf("feed id is required")
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setString("vehicles", &info.VehiclesURL)
	setString("trips", &info.TripsURL)
	setString("alerts", &info.AlertsURL)
	setString("auth-type", &info.AuthType)
	setString("auth-header", &info.AuthHeader)
	setString("password", &info.AuthPassword)

	if flags.Changed("rotate") {
		info.RotationCredentials, _ = flags.GetStringSlice("rotate")
	}
	if flags.Changed("fetch-interval") {
		info.FetchIntervalSeconds, _ = flags.GetFloat64("fetch-interval")
	}
	info.HasAuth = info.HasAuth || info.AuthPassword != "" || len(info.RotationCredentials) > 0

	return info, nil
}
