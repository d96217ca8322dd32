package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/venuedesk/venuedesk/internal/auth"
)

func newTokenCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Signer == nil {
				return errMissingDependency
			}
			subject, _ := cmd.Flags().GetString("subject")
			if subject == "" {
				return errors.New("--subject is required")
			}
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			signer, err := deps.Signer()
			if err != nil {
				return err
			}
			token, err := signer.Sign(auth.Principal{Subject: subject, Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "Token subject. (required)")
	cmd.Flags().String("email", "", "E-mail claim.")
	cmd.Flags().String("role", auth.RoleAdmin, "Role claim.")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime.")
	return cmd
}
