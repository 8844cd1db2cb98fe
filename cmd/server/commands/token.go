package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Annany2002/nebula-studio/config"
	"github.com/Annany2002/nebula-studio/internal/auth"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user id",
	Long: `Sign a JWT with JWT_SECRET whose subject is the given user id. Users are
managed by an external identity provider; this is for development and scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		ttl := cfg.JWTExpiration
		if tokenTTL > 0 {
			ttl = tokenTTL
		}
		token, err := auth.GenerateJWT(args[0], cfg.JWTSecret, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default: JWT_EXPIRATION_HOURS)")
}
