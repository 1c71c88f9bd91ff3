package commands

import (
	"github.com/spf13/cobra"
)

func newPaymentsCommand(flags *rootFlags) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Show VAT payments received in a date range",
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

			payments, err := s.client.Payments(cmd.Context(), s.cfg.Identity.VRN, from, to)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return printJSON(payments)
			}

			var rows [][]string
			for _, p := range payments {
				rows = append(rows, []string{
					p.Amount.StringFixed(2),
					p.Received.String(),
				})
			}
			table([]string{"Amount", "Received"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "period end (YYYY-MM-DD)")
	return cmd
}
