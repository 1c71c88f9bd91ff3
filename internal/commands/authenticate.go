package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/auth"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/hmrc"
)

// authTimeout bounds the wait for the user to complete the browser
// flow.
const authTimeout = 5 * time.Minute

func newAuthenticateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "authenticate",
		Short: "Obtain an OAuth2 token from HMRC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Please visit the following URL and authenticate:")
			fmt.Fprintln(cmd.OutOrStdout(), s.client.AuthorizeURL())

			listen, err := callbackAddr()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()

			code, err := auth.CollectCode(ctx, listen)
			if err != nil {
				return fmt.Errorf("collecting authorization code: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Got one-time code.")

			tok, err := s.client.ExchangeCode(ctx, code)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Got authentication key.")

			s.store.Token = tok
			if err := s.store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s.\n", flags.authPath)
			return nil
		},
	}
}

// callbackAddr derives the listen address from the registered redirect
// URI.
func callbackAddr() (string, error) {
	u, err := url.Parse(hmrc.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("parsing redirect URI: %w", err)
	}
	return u.Host, nil
}
