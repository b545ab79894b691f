package main

import (
	"fmt"

	"timefilter/internal/config"
	"timefilter/internal/middleware"
	"timefilter/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTokenCmd() *cobra.Command {
	var clientName string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT for the live feed and preset writes",
		Long: `Issue a signed token. Tokens are only issued from the command line; the server
exposes no token endpoint. The server must share the secret key (auth.secretKey or the
persisted key file) for the token to validate.`,
		Example: `  timefilter token --client dashboard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !middleware.NewInputValidator().ValidateName(clientName) {
				return fmt.Errorf("invalid client name %q", clientName)
			}

			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}

			auth := services.InitAuthService(cfg.Auth.SecretKey, cfg.Auth.TokenExpiry, zap.NewNop())
			token, err := auth.GenerateToken(clientName)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "expires: %s\n", auth.TokenExpiry().Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "dashboard", "Client name embedded in the token")
	return cmd
}
