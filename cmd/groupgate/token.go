package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/groupgate/groupgate/internal/identity"
)

var (
	tokenRole  string
	tokenTTL   time.Duration
	tokenAdmin bool
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a development bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verifier, err := identity.NewVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		role := tokenRole
		if tokenAdmin {
			role = "service_role"
		}
		tok, err := verifier.Mint(args[0], role, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "authenticated", "JWT role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "mint a service_role token")
}
