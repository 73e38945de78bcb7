package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/facematch"
)

var scanCmd = &cobra.Command{
	Use:   "scan [encoding]",
	Short: "Run one scan against the configured store",
	Long: `Evaluate a face encoding exactly as a door reader would. The decision is
recorded in the audit log like any other scan.

The encoding is the base64 transport text; use --values to pass 128
comma-separated numbers instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("values", "", "Comma-separated encoding values instead of transport text")
	scanCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	text, err := encodingFromArgs(cmd, args)
	if err != nil {
		return err
	}

	cfg, logger, cleanup, err := loadRuntime()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	scanner := access.NewScanner(store, facematch.NewMatcher(cfg.Match.Threshold), nil, logger)
	result, err := scanner.Scan(ctx, text)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Status:     %s\n", result.Status)
	fmt.Printf("Event:      %s\n", result.EventID)
	if result.Identity != nil {
		fmt.Printf("Identity:   %s (%s, card %s)\n", result.Identity.Name, result.Identity.Classification, result.Identity.CardID)
		fmt.Printf("Confidence: %.4f (%s)\n", *result.Confidence, result.Quality)
		fmt.Printf("Distance:   %.4f\n", *result.Distance)
	}
	return nil
}
