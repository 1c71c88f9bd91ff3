package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

func newOpenObligationsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open-obligations",
		Short: "Show VAT obligations not yet fulfilled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}

			obs, err := s.client.OpenObligations(cmd.Context(), s.cfg.Identity.VRN)
			if err != nil {
				return err
			}
			return printObligations(flags, obs, false)
		},
	}
}

func newObligationsCommand(flags *rootFlags) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "obligations",
		Short: "Show VAT obligations in a date range",
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

			obs, err := s.client.Obligations(cmd.Context(), s.cfg.Identity.VRN, from, to, "")
			if err != nil {
				return err
			}
			return printObligations(flags, obs, true)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "period end (YYYY-MM-DD)")
	return cmd
}

func printObligations(flags *rootFlags, obs []model.Obligation, showReceived bool) error {
	if len(obs) == 0 {
		fmt.Println("No obligations matched.")
		return nil
	}

	if flags.jsonOutput {
		return printJSON(obs)
	}

	header := []string{"Start", "End", "Due", "Status"}
	if showReceived {
		header = []string{"Start", "End", "Due", "Received", "Status"}
	}

	var rows [][]string
	for _, o := range obs {
		row := []string{o.Start.String(), o.End.String(), dateOrEmpty(o.Due)}
		if showReceived {
			row = append(row, dateOrEmpty(o.Received))
		}
		rows = append(rows, append(row, string(o.Status)))
	}
	table(header, rows)
	return nil
}
