package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwtmw "stock_trend/internal/platform/jwt"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

// tokenCmd token サブコマンド
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for POST /preload",
	Long: `Sign a JWT with auth.jwt_secret (JWT_SECRET).

Examples:
  go run ./cmd/trendctl token --subject ops --ttl 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		token, err := jwtmw.NewGenerator(cfg.Auth.JWTSecret, ttl).GenerateToken(tokenSubject)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
}
