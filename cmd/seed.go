package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Enroll identities from a YAML file",
	Long: `Enroll identities listed in a YAML file. Each entry needs card_id, name and
either face_encoding (transport text) or values (128 numbers in [-1, 1]).
Entries whose card ID is already enrolled are skipped.

Example:
  identities:
    - card_id: CARD-001
      name: Jana Nováková
      classification: PERMANENT
      values: [0.01, -0.2, ...]
    - card_id: VIS-17
      name: Contractor
      classification: TEMPORARY
      expires_at: 2026-12-31T18:00:00Z
      face_encoding: MC4xLC0wLjIs...`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("file", "", "YAML file with identities (required)")
	seedCmd.Flags().Bool("dry-run", false, "Validate the file without writing")
	seedCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	_ = seedCmd.MarkFlagRequired("file")
}

// seedFile is the YAML document accepted by seed
type seedFile struct {
	Identities []seedIdentity `yaml:"identities"`
}

type seedIdentity struct {
	CardID         string     `yaml:"card_id"`
	Name           string     `yaml:"name"`
	Email          string     `yaml:"email"`
	Classification string     `yaml:"classification"`
	ExpiresAt      *time.Time `yaml:"expires_at"`
	FaceEncoding   string     `yaml:"face_encoding"`
	Values         []float64  `yaml:"values"`
}

// parseSeedFile decodes a seed document.
func parseSeedFile(data []byte) (*seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// input converts a seed entry to a registry input, encoding values when no
// transport text is given.
func (s seedIdentity) input() (access.IdentityInput, error) {
	if s.FaceEncoding != "" && len(s.Values) > 0 {
		return access.IdentityInput{}, errors.New("face_encoding and values are mutually exclusive")
	}
	text := s.FaceEncoding
	if len(s.Values) > 0 {
		encoded, err := encoding.Encode(s.Values)
		if err != nil {
			return access.IdentityInput{}, err
		}
		text = encoded
	}

	in := access.IdentityInput{
		CardID:       &s.CardID,
		Name:         &s.Name,
		ExpiresAt:    s.ExpiresAt,
		FaceEncoding: &text,
	}
	if s.Email != "" {
		in.Email = &s.Email
	}
	if s.Classification != "" {
		in.Classification = &s.Classification
	}
	return in, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")
	dryRun := mustGetBool(cmd, "dry-run")
	noProgress := mustGetBool(cmd, "no-progress")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	file, err := parseSeedFile(data)
	if err != nil {
		return err
	}
	if len(file.Identities) == 0 {
		fmt.Println("No identities in seed file")
		return nil
	}

	inputs := make([]access.IdentityInput, len(file.Identities))
	for i, entry := range file.Identities {
		in, err := entry.input()
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i+1, entry.CardID, err)
		}
		inputs[i] = in
	}
	if dryRun {
		fmt.Printf("%d identities parsed, nothing written\n", len(inputs))
		return nil
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

	registry := access.NewRegistry(store, nil, logger)

	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = progressbar.NewOptions(len(inputs),
			progressbar.OptionSetDescription("Enrolling"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("identities"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	var enrolled, skipped int
	var failures []string
	for i, in := range inputs {
		_, err := registry.Enroll(ctx, in)
		switch {
		case err == nil:
			enrolled++
		case errors.Is(err, database.ErrDuplicateIdentifier):
			skipped++
		case errors.Is(err, access.ErrStorageUnavailable):
			return fmt.Errorf("enrolling entry %d: %w", i+1, err)
		default:
			failures = append(failures, fmt.Sprintf("entry %d (%s): %v", i+1, *in.CardID, err))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Enrolled: %d, skipped (already enrolled): %d, failed: %d\n", enrolled, skipped, len(failures))
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d entries failed", len(failures))
	}
	return nil
}
