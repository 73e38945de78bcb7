package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin API token",
	Long: `Mint an HS256 bearer token for the admin API, signed with ADMIN_JWT_SECRET.
Send it as "Authorization: Bearer <token>".`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("subject", "admin", "Token subject (who the token is for)")
	tokenCmd.Flags().Duration("ttl", auth.DefaultTokenTTL, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if !cfg.Admin.AuthEnabled() {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}

	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return fmt.Errorf("flag error for --ttl: %w", err)
	}

	service := auth.NewTokenService(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer)
	token, err := service.IssueAdminToken(mustGetString(cmd, "subject"), ttl)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	fmt.Println(token)
	return nil
}
