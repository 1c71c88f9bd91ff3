package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
)

func newInitCommand(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.json with collected device facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(flags.configPath); !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%s already exists, use --force to overwrite", flags.configPath)
				}
			}

			cfg := config.Default()
			if err := config.Save(flags.configPath, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s.\n", flags.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
