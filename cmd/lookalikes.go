package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/access"
)

var lookalikesCmd = &cobra.Command{
	Use:   "lookalikes",
	Short: "List enrolled identities that are hard to tell apart",
	Long: `Report pairs of enrolled identities whose encodings are within
--max-distance of each other. A scan close to both resolves by enrollment order,
so such pairs deserve re-enrollment or a higher threshold.`,
	RunE: runLookalikes,
}

func init() {
	rootCmd.AddCommand(lookalikesCmd)

	lookalikesCmd.Flags().Float64("max-distance", 0, "Maximum pair distance (default LOOKALIKE_MAX_DISTANCE)")
}

func runLookalikes(cmd *cobra.Command, args []string) error {
	cfg, logger, cleanup, err := loadRuntime()
	if err != nil {
		return err
	}
	defer cleanup()

	maxDistance := mustGetFloat64(cmd, "max-distance")
	if maxDistance <= 0 {
		maxDistance = cfg.Match.LookalikeMaxDistance
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	registry := access.NewRegistry(store, nil, logger)
	pairs, err := registry.Lookalikes(ctx, maxDistance)
	if err != nil {
		return fmt.Errorf("finding lookalikes: %w", err)
	}

	if len(pairs) == 0 {
		fmt.Printf("No pairs within distance %.3f\n", maxDistance)
		return nil
	}

	fmt.Printf("%d pairs within distance %.3f:\n", len(pairs), maxDistance)
	for _, p := range pairs {
		fmt.Printf("  %.4f  %s (%s)  <->  %s (%s)\n", p.Distance, p.A.Name, p.A.CardID, p.B.Name, p.B.CardID)
	}
	return nil
}
