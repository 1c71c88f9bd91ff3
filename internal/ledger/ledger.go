// Package ledger reads account hierarchies and transaction splits from
// a double-entry book. Two backends are supported: a plain-CSV ledger
// directory and a GnuCash XML file.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	TypeAsset      AccountType = "ASSET"
	TypeBank       AccountType = "BANK"
	TypeCash       AccountType = "CASH"
	TypeLiability  AccountType = "LIABILITY"
	TypeCredit     AccountType = "CREDIT"
	TypePayable    AccountType = "PAYABLE"
	TypeReceivable AccountType = "RECEIVABLE"
	TypeIncome     AccountType = "INCOME"
	TypeExpense    AccountType = "EXPENSE"
	TypeEquity     AccountType = "EQUITY"
	TypeRoot       AccountType = "ROOT"
)

// Split is one leg of a transaction booked against an account.
type Split struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// Account is a node in the account tree.
type Account interface {
	Name() string
	Type() AccountType
	Children() []Account
	Splits() []Split
}

// Book is an opened ledger.
type Book interface {
	Root() Account
	// Resolve looks up an account by colon-separated path from the
	// root, e.g. "VAT:Output:Sales".
	Resolve(path string) (Account, error)
}

// ErrAccountNotFound indicates an account path that does not resolve.
var ErrAccountNotFound = errors.New("ledger: account not found")

// Kind selects a ledger backend.
type Kind string

const (
	KindCSV Kind = "csv"
	KindXML Kind = "xml"
)

// Open opens a book of the given kind. For KindCSV the path is a
// directory; for KindXML it is a GnuCash XML file (plain or gzipped).
func Open(kind Kind, path string) (Book, error) {
	switch kind {
	case KindCSV:
		return OpenCSV(path)
	case KindXML:
		return OpenXML(path)
	}
	return nil, fmt.Errorf("ledger: unknown kind %q", kind)
}

// resolvePath walks the tree segment-by-segment from start.
func resolvePath(start Account, path string) (Account, error) {
	acct := start
	for _, name := range strings.Split(path, ":") {
		var next Account
		for _, ch := range acct.Children() {
			if ch.Name() == name {
				next = ch
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, path)
		}
		acct = next
	}
	return acct, nil
}

// IsDebitNormal reports whether splits on this account type carry the
// opposite sign to the VAT box convention. Income, equity and
// liability-classified accounts get flipped.
func IsDebitNormal(t AccountType) bool {
	switch t {
	case TypeIncome, TypeEquity, TypeLiability, TypeCredit, TypePayable:
		return true
	}
	return false
}

// maxDepth bounds the recursive account walk against pathological
// hierarchies.
const maxDepth = 64

// SplitsInRange collects every split under acct (recursing into child
// accounts) whose transaction date falls in [start, end) or
// [start, end] per endInclusive. Order is unspecified.
func SplitsInRange(acct Account, start, end time.Time, endInclusive bool) ([]Split, error) {
	return collectSplits(acct, start, end, endInclusive, 0)
}

func collectSplits(acct Account, start, end time.Time, endInclusive bool, depth int) ([]Split, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("ledger: account tree exceeds depth %d at %q", maxDepth, acct.Name())
	}

	var splits []Split
	for _, ch := range acct.Children() {
		sub, err := collectSplits(ch, start, end, endInclusive, depth+1)
		if err != nil {
			return nil, err
		}
		splits = append(splits, sub...)
	}

	for _, spl := range acct.Splits() {
		if spl.Date.Before(start) {
			continue
		}
		if spl.Date.Before(end) || (endInclusive && spl.Date.Equal(end)) {
			splits = append(splits, spl)
		}
	}
	return splits, nil
}
