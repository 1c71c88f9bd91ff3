// Package vat extracts the 9 VAT return box values from a ledger.
package vat

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/ledger"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

// BoxResult is one box's computed total with the contributing splits.
// Split order is unspecified.
type BoxResult struct {
	Total  decimal.Decimal
	Splits []ledger.Split
}

// Box indices (zero-based) with special handling. Boxes 1-5 accept
// pence; boxes 6-9 must be whole pounds per HMRC.
const (
	lastPenceBox = 4 // vatDueSales .. netVatDue
	netVATDueBox = 4 // reported as a positive figure either way
)

// Compute walks the configured accounts for each VAT box over
// [start, end] (end inclusive) and returns box totals with
// per-transaction detail. Splits booked against income, equity or
// liability accounts are sign-flipped to the VAT box convention.
func Compute(book ledger.Book, accounts config.AccountsConfig, start, end time.Time) (map[string]BoxResult, error) {
	locators := accounts.Locators()
	results := make(map[string]BoxResult, len(model.BoxNames))

	for i, name := range model.BoxNames {
		paths, err := locators[name].Paths()
		if err != nil {
			return nil, fmt.Errorf("box %s: %w", name, err)
		}

		var all []ledger.Split
		for _, path := range paths {
			acct, err := book.Resolve(path)
			if err != nil {
				return nil, fmt.Errorf("box %s: %w", name, err)
			}
			splits, err := ledger.SplitsInRange(acct, start, end, true)
			if err != nil {
				return nil, fmt.Errorf("box %s: %w", name, err)
			}
			if ledger.IsDebitNormal(acct.Type()) {
				for j := range splits {
					splits[j].Amount = splits[j].Amount.Neg()
				}
			}
			all = append(all, splits...)
		}

		total := decimal.Zero
		for _, spl := range all {
			total = total.Add(spl.Amount)
		}

		if i <= lastPenceBox {
			total = total.Round(2)
		} else {
			total = total.Round(0)
		}
		if i == netVATDueBox {
			total = total.Abs()
		}

		results[name] = BoxResult{Total: total, Splits: all}
	}

	checkIdentities(results)
	return results, nil
}

// checkIdentities logs when the configured totals accounts disagree
// with the box arithmetic. Advisory only: the accounts are
// authoritative.
func checkIdentities(results map[string]BoxResult) {
	sum := results["vatDueSales"].Total.Add(results["vatDueAcquisitions"].Total)
	if !sum.Equal(results["totalVatDue"].Total) {
		log.Debug().
			Str("totalVatDue", results["totalVatDue"].Total.String()).
			Str("vatDueSales+vatDueAcquisitions", sum.String()).
			Msg("box 3 does not equal box 1 + box 2")
	}
	net := results["totalVatDue"].Total.Sub(results["vatReclaimedCurrPeriod"].Total).Abs().Round(2)
	if !net.Equal(results["netVatDue"].Total) {
		log.Debug().
			Str("netVatDue", results["netVatDue"].Total.String()).
			Str("|totalVatDue-vatReclaimedCurrPeriod|", net.String()).
			Msg("box 5 does not equal |box 3 - box 4|")
	}
}

// BuildReturn assembles a finalised Return from computed box results.
func BuildReturn(periodKey string, results map[string]BoxResult) (model.Return, error) {
	rtn := model.Return{PeriodKey: periodKey, Finalised: true}
	for _, name := range model.BoxNames {
		res, ok := results[name]
		if !ok {
			return model.Return{}, fmt.Errorf("no computed value for box %s", name)
		}
		if err := rtn.SetBox(name, model.NewAmount(res.Total)); err != nil {
			return model.Return{}, err
		}
	}
	return rtn, nil
}
