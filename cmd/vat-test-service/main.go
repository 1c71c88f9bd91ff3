// vat-test-service is a local stand-in for the HMRC VAT API. It serves
// the OAuth and VAT endpoints against synthetic data so the CLI can be
// exercised end to end without touching a real tax account.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/buildinfo"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/logging"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/testsrv"
)

func main() {
	var (
		listen   string
		dataFile string
		logLevel string
		cfg      testsrv.Config
	)

	rootCmd := &cobra.Command{
		Use:     "vat-test-service",
		Short:   "Mock HMRC VAT API for local testing",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if err := logging.Setup(logLevel, true); err != nil {
				return err
			}

			tmpl := testsrv.DefaultTemplate()
			if dataFile != "" {
				data, err := os.ReadFile(dataFile)
				if err != nil {
					return fmt.Errorf("reading VAT data: %w", err)
				}
				if tmpl, err = testsrv.LoadTemplate(data); err != nil {
					return err
				}
			}

			return testsrv.New(tmpl, cfg).ListenAndServe(listen)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&listen, "listen", "localhost:8080", "listen address")
	f.StringVar(&dataFile, "data", "", "VRN-keyed VAT data file (default: built-in dataset)")
	f.StringVar(&logLevel, "log-level", "info", "log level (trace..panic)")
	f.StringVar(&cfg.Secret, "secret", "", "bearer token the service issues and accepts")
	f.StringVar(&cfg.Username, "username", "", "require this username at the login form")
	f.StringVar(&cfg.Password, "password", "", "require this password at the login form")
	f.StringVar(&cfg.ClientID, "client-id", "", "accepted OAuth client ID")
	f.StringVar(&cfg.ClientSecret, "client-secret", "", "accepted OAuth client secret")
	f.BoolVar(&cfg.DumpHeaders, "dump-headers", false, "log all request headers")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
