package main

import (
	"fmt"
	"os"
	"time"

	"nft-bridge/internal/config"
	"nft-bridge/internal/middleware"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	operator string
	ttl      time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "generate-jwt",
	Short:        "Mint an operator token for the mutating bridge routes",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwtSecret (or JWT_SECRET) is not set")
		}

		token, err := middleware.GenerateToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, operator, ttl)
		if err != nil {
			return err
		}

		fmt.Println("============================================================")
		fmt.Println("JWT Token Generated")
		fmt.Println("============================================================")
		fmt.Println()
		fmt.Println("Token:")
		fmt.Println(token)
		fmt.Println()
		fmt.Println("Claims:")
		fmt.Printf("  Operator: %s\n", operator)
		fmt.Printf("  Issuer: %s\n", cfg.Auth.Issuer)
		fmt.Printf("  Expires: %s\n", time.Now().Add(ttl).Format(time.RFC3339))
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Printf("  curl -X POST -H 'Authorization: Bearer %s' http://localhost:%d/api/bridge\n", token, cfg.Server.Port)
		return nil
	},
}

func main() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default config.local.yaml, then config.yaml)")
	rootCmd.Flags().StringVar(&operator, "operator", "operator", "operator name stored in the token")
	rootCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
