// Package commands wires up the ukvat CLI. Each subcommand performs
// one operation against the ledger and/or the VAT API.
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/buildinfo"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/logging"
)

// rootFlags are the persistent options shared by every subcommand.
type rootFlags struct {
	configPath string
	authPath   string
	jsonOutput bool
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:     "ukvat",
		Short:   "UK VAT returns from a GnuCash or CSV ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env keeps client credentials out of config.json.
			_ = godotenv.Load()
			return logging.Setup(flags.logLevel, false)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "config.json", "configuration file")
	pf.StringVar(&flags.authPath, "auth", "auth.json", "authentication state file")
	pf.BoolVar(&flags.jsonOutput, "json", false, "machine-readable JSON output")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (trace..panic)")

	rootCmd.AddCommand(
		newInitCommand(flags),
		newAuthenticateCommand(flags),
		newOpenObligationsCommand(flags),
		newObligationsCommand(flags),
		newVATReturnCommand(flags),
		newSubmitReturnCommand(flags),
		newLiabilitiesCommand(flags),
		newPaymentsCommand(flags),
		newAccountDataCommand(flags),
		newPostBillCommand(flags),
	)

	return rootCmd
}
