package commands

import (
	"github.com/spf13/cobra"
)

func newLiabilitiesCommand(flags *rootFlags) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "liabilities",
		Short: "Show VAT liabilities in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}

			from, to, err := dateRangeFlags(start, end)
			if err != nil {
				return err
			}

			liabilities, err := s.client.Liabilities(cmd.Context(), s.cfg.Identity.VRN, from, to)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return printJSON(liabilities)
			}

			var rows [][]string
			for _, l := range liabilities {
				typ := l.Type
				if len(typ) > 20 {
					typ = typ[:20]
				}
				rows = append(rows, []string{
					l.End.String(),
					typ,
					l.Original.StringFixed(2),
					amountOrEmpty(l.Outstanding),
					dateOrEmpty(l.Due),
				})
			}
			table([]string{"Period End", "Type", "Amount", "Outstanding", "Due"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "period end (YYYY-MM-DD)")
	return cmd
}
