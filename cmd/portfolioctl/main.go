// Command portfolioctl manages the stored portfolio document from the shell.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolioctl",
	Short: "Manage the portfolio document",
	Long: `portfolioctl seeds, dumps and exports the portfolio document stored in the
key-value store, and hashes admin passwords for ADMIN_PASSWORD_HASH.

Connection settings are read from the same environment (and .env file) as the API.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
