package main

import (
	"fmt"
	"os"
	"time"

	"nexcrm/internal/config"
	"nexcrm/internal/middleware"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "nexcrm",
	Short: "nexcrm administrative CLI",
	Long:  "Administrative commands for the nexcrm automation service.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nexcrm %s\n", version)
	},
}

var (
	tokenUser string
	tokenOrg  string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user in an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUser == "" || tokenOrg == "" {
			return fmt.Errorf("--user and --org are required")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()
		cfg := config.Load()
		secret := cfg.JWT.Secret
		if secret == "" {
			secret = config.GetDefaultConfig().JWT.Secret
		}

		token, err := middleware.GenerateToken(secret, tokenUser, tokenOrg, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (sub claim)")
	tokenCmd.Flags().StringVar(&tokenOrg, "org", "", "organization id (org claim)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
