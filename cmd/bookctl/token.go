package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookster/catalog-server/internal/auth"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an access token for local development",
		Long: `Token signs an access token with the server's key, loading or
generating it under the data directory when none is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := root.newInjector(cmd)
			if err != nil {
				return err
			}
			defer injector.Shutdown() //nolint:errcheck // CLI exit

			tokens, err := do.Invoke[*auth.TokenService](injector)
			if err != nil {
				return err
			}

			role := auth.RoleUser
			if admin {
				role = auth.RoleAdmin
			}
			token, err := tokens.GenerateAccessToken(args[0], role)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return printJSON(out, map[string]any{
					"token":      token,
					"user_id":    args[0],
					"role":       role,
					"expires_in": tokens.AccessTokenDuration().String(),
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	return cmd
}
