package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/vat"
)

func newAccountDataCommand(flags *rootFlags) *cobra.Command {
	var dueDate string
	var detail bool

	cmd := &cobra.Command{
		Use:   "account-data",
		Short: "Show the ledger figures behind an open obligation's return",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}

			due, err := parseDateFlag("due-date", dueDate)
			if err != nil {
				return err
			}

			obs, err := s.client.OpenObligations(cmd.Context(), s.cfg.Identity.VRN)
			if err != nil {
				return err
			}
			obl, err := obligationByDue(obs, due)
			if err != nil {
				return err
			}

			book, err := s.openBook()
			if err != nil {
				return err
			}

			results, err := vat.Compute(book, s.cfg.Accounts, obl.Start.Time, obl.End.Time)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				out := make(map[string]any, len(results))
				for name, res := range results {
					out[name] = map[string]any{
						"total":  res.Total,
						"splits": res.Splits,
					}
				}
				return printJSON(out)
			}

			fmt.Printf("Found obligation that is due on '%s'\n\n", model.DateOf(due))
			fmt.Printf("Search for account data in '%s' from '%s' to '%s'\n\n",
				s.cfg.Accounts.File, obl.Start, obl.End)

			for _, name := range model.BoxNames {
				res := results[name]
				fmt.Printf("    %s: %s\n", model.BoxDescriptions[name], res.Total.StringFixed(2))

				if !detail || len(res.Splits) == 0 {
					continue
				}
				fmt.Println()
				var rows [][]string
				for _, spl := range res.Splits {
					desc := spl.Description
					if len(desc) > 60 {
						desc = desc[:60]
					}
					rows = append(rows, []string{
						"        " + spl.Date.Format("2006-01-02"),
						spl.Amount.StringFixed(2),
						desc,
					})
				}
				table([]string{"        Date", "Amount", "Description"}, rows)
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dueDate, "due-date", "", "obligation due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&detail, "detail", false, "list contributing transactions")
	return cmd
}
