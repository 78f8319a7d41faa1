package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintracker/internal/config"
	"fintracker/internal/util"
)

func newTokenCommand(configPath *string) *cobra.Command {
	var owner, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL()
			}
			token, err := util.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, owner, email, ttl)
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl_hours)")

	return cmd
}
