package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/ledger"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

// Bill due date: one calendar month plus 7 days from the end of the
// accounting period.
const billDueDays = 28 + 7

func newPostBillCommand(flags *rootFlags) *cobra.Command {
	var start, end, dueDate string

	cmd := &cobra.Command{
		Use:   "post-bill",
		Short: "Post the VAT bill for an obligation into the ledger",
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

			rtn, err := computeReturn(s, obl)
			if err != nil {
				return err
			}
			fmt.Print(rtn.String())

			if err := postBill(s, obl, rtn); err != nil {
				return err
			}
			fmt.Println("Bill posted.")
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "search start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "search end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "obligation due date (YYYY-MM-DD)")
	return cmd
}

// postBill appends the VAT bill legs to the CSV journal: the VAT
// charge and rebate against the liability account, balanced by the
// payable owed to HMRC. Bill posting needs write access, which only
// the CSV backend provides.
func postBill(s *session, obl model.Obligation, rtn model.Return) error {
	if ledger.Kind(s.cfg.Accounts.Kind) != ledger.KindCSV {
		return fmt.Errorf("post-bill is not supported for the %q backend", s.cfg.Accounts.Kind)
	}
	if s.cfg.Accounts.Liabilities == "" || s.cfg.Accounts.Bills == "" {
		return fmt.Errorf("accounts.liabilities and accounts.bills must be configured")
	}

	book, err := ledger.OpenCSV(s.cfg.Accounts.File)
	if err != nil {
		return err
	}
	liabilityID, err := book.AccountID(s.cfg.Accounts.Liabilities)
	if err != nil {
		return err
	}
	billsID, err := book.AccountID(s.cfg.Accounts.Bills)
	if err != nil {
		return err
	}

	billDate := obl.End

	entries := []ledger.JournalEntry{
		{
			Date:        billDate.Time,
			AccountID:   liabilityID,
			Description: "VAT from sales and acquisitions",
			Debit:       rtn.TotalVATDue.Decimal,
		},
		{
			Date:        billDate.Time,
			AccountID:   liabilityID,
			Description: "VAT rebate on acquisitions",
			Credit:      rtn.VATReclaimedCurrPeriod.Decimal,
		},
		{
			Date:        billDate.Time,
			AccountID:   billsID,
			Description: fmt.Sprintf("VAT payment for due date %s", obl.End.AddDays(billDueDays)),
			Credit:      rtn.NetVATDue.Decimal,
		},
	}

	dir := filepath.Clean(s.cfg.Accounts.File)
	return ledger.AppendJournal(dir, entries)
}
