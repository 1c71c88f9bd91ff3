package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/vat"
)

func newVATReturnCommand(flags *rootFlags) *cobra.Command {
	var start, end, dueDate string

	cmd := &cobra.Command{
		Use:   "vat-return",
		Short: "Fetch a previously submitted VAT return",
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
			from, to, err := dateRangeFlags(start, end)
			if err != nil {
				return err
			}

			obs, err := s.client.Obligations(cmd.Context(), s.cfg.Identity.VRN, from, to, "")
			if err != nil {
				return err
			}
			obl, err := obligationByDue(obs, due)
			if err != nil {
				return err
			}

			rtn, err := s.client.VATReturn(cmd.Context(), s.cfg.Identity.VRN, obl.PeriodKey)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return printJSON(rtn)
			}
			fmt.Print(rtn.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "search start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "search end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "obligation due date (YYYY-MM-DD)")
	return cmd
}

func newSubmitReturnCommand(flags *rootFlags) *cobra.Command {
	var dueDate string

	cmd := &cobra.Command{
		Use:   "submit-return",
		Short: "Calculate and submit the VAT return for an open obligation",
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

			// Everything is computed before the prompt; submission
			// itself is one atomic call.
			rtn, err := computeReturn(s, obl)
			if err != nil {
				return err
			}

			fmt.Print(rtn.String())

			ok, err := confirmSubmission(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("submission was not accepted")
			}

			receipt, err := s.client.SubmitReturn(cmd.Context(), s.cfg.Identity.VRN, rtn)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return printJSON(receipt)
			}

			fmt.Println()
			fmt.Println("Submitted.")
			fmt.Printf("%-30s: %s\n", "Processing date", receipt.ProcessingDate)
			if receipt.PaymentIndicator != "" {
				fmt.Printf("%-30s: %s\n", "Payment indicator", receipt.PaymentIndicator)
			}
			fmt.Printf("%-30s: %s\n", "Form bundle", receipt.FormBundleNumber)
			if receipt.ChargeRefNumber != "" {
				fmt.Printf("%-30s: %s\n", "Charge ref", receipt.ChargeRefNumber)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dueDate, "due-date", "", "obligation due date (YYYY-MM-DD)")
	return cmd
}

// computeReturn extracts the obligation period's box values from the
// configured ledger.
func computeReturn(s *session, obl model.Obligation) (model.Return, error) {
	book, err := s.openBook()
	if err != nil {
		return model.Return{}, err
	}

	results, err := vat.Compute(book, s.cfg.Accounts, obl.Start.Time, obl.End.Time)
	if err != nil {
		return model.Return{}, err
	}
	return vat.BuildReturn(obl.PeriodKey, results)
}
