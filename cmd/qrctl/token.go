package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/postoppal-api/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
		secret  string
		issuer  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token",
		Long:  "Mint a signed API access token. The secret defaults to $JWT_SECRET.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}

			token, err := auth.NewHMACService(secret, issuer).GenerateAccessToken(subject, auth.Role(role), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "directory ID of the caller")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleDoctor), "admin, doctor or patient")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", "postoppal", "token issuer")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
