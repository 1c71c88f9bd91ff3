package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The CSV backend reads a ledger directory holding chart-of-accounts.csv
// and journal.csv.

const (
	chartFile   = "chart-of-accounts.csv"
	journalFile = "journal.csv"

	chartFields = 5
	colAcctID   = 0
	colAcctName = 1
	colAcctType = 2
	colParent   = 3
	colAcctDesc = 4

	journalFields = 5
	colDate       = 0
	colJrnAcct    = 1
	colDesc       = 2
	colDebit      = 3
	colCredit     = 4

	csvDateFormat = "2006-01-02"
)

// ChartHeader is the header row of chart-of-accounts.csv.
const ChartHeader = "account_id,account_name,account_type,parent_id,description"

// JournalHeader is the header row of journal.csv.
const JournalHeader = "date,account_id,description,debit,credit"

// csvAccount is a chart-of-accounts node with its attached splits.
type csvAccount struct {
	id       int
	name     string
	typ      AccountType
	children []*csvAccount
	splits   []Split
}

func (a *csvAccount) Name() string      { return a.name }
func (a *csvAccount) Type() AccountType { return a.typ }
func (a *csvAccount) Splits() []Split   { return a.splits }

func (a *csvAccount) Children() []Account {
	out := make([]Account, len(a.children))
	for i, ch := range a.children {
		out[i] = ch
	}
	return out
}

// CSVBook is a ledger loaded from a CSV directory.
type CSVBook struct {
	root *csvAccount
}

// Root returns the synthetic root account.
func (b *CSVBook) Root() Account { return b.root }

// Resolve looks up an account by colon-separated path.
func (b *CSVBook) Resolve(path string) (Account, error) {
	return resolvePath(b.root, path)
}

// csvAccountTypes maps chart-of-accounts type names to account types.
var csvAccountTypes = map[string]AccountType{
	"asset":     TypeAsset,
	"bank":      TypeBank,
	"cash":      TypeCash,
	"liability": TypeLiability,
	"payable":   TypePayable,
	"income":    TypeIncome,
	"revenue":   TypeIncome,
	"expense":   TypeExpense,
	"equity":    TypeEquity,
}

// OpenCSV loads a ledger directory.
func OpenCSV(dir string) (*CSVBook, error) {
	cf, err := os.Open(filepath.Join(dir, chartFile))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer cf.Close()

	book, byID, err := readChart(cf)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}

	jf, err := os.Open(filepath.Join(dir, journalFile))
	if errors.Is(err, fs.ErrNotExist) {
		return book, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer jf.Close()

	if err := readJournal(jf, byID); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return book, nil
}

func readChart(r io.Reader) (*CSVBook, map[int]*csvAccount, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chartFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("chart of accounts is empty")
	}

	root := &csvAccount{name: "Root", typ: TypeRoot}
	byID := make(map[int]*csvAccount)
	parents := make(map[int]int)

	for i, rec := range records[1:] {
		id, err := strconv.Atoi(rec[colAcctID])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: parsing account_id %q: %w", i+2, rec[colAcctID], err)
		}
		typ, ok := csvAccountTypes[strings.ToLower(rec[colAcctType])]
		if !ok {
			return nil, nil, fmt.Errorf("row %d: unknown account type %q", i+2, rec[colAcctType])
		}
		var parent int
		if rec[colParent] != "" {
			parent, err = strconv.Atoi(rec[colParent])
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: parsing parent_id %q: %w", i+2, rec[colParent], err)
			}
		}
		byID[id] = &csvAccount{id: id, name: rec[colAcctName], typ: typ}
		parents[id] = parent
	}

	// Attach children; parent 0 means top-level.
	for id, acct := range byID {
		parent := root
		if pid := parents[id]; pid != 0 {
			p, ok := byID[pid]
			if !ok {
				return nil, nil, fmt.Errorf("account %d references missing parent %d", id, parents[id])
			}
			parent = p
		}
		parent.children = append(parent.children, acct)
	}

	return &CSVBook{root: root}, byID, nil
}

func readJournal(r io.Reader, byID map[int]*csvAccount) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = journalFields

	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("reading journal CSV: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	for i, rec := range records[1:] {
		date, err := time.Parse(csvDateFormat, rec[colDate])
		if err != nil {
			return fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[colDate], err)
		}
		acctID, err := strconv.Atoi(rec[colJrnAcct])
		if err != nil {
			return fmt.Errorf("row %d: parsing account_id %q: %w", i+2, rec[colJrnAcct], err)
		}
		acct, ok := byID[acctID]
		if !ok {
			return fmt.Errorf("row %d: unknown account %d", i+2, acctID)
		}

		debit, err := parseCSVAmount(rec[colDebit])
		if err != nil {
			return fmt.Errorf("row %d: parsing debit %q: %w", i+2, rec[colDebit], err)
		}
		credit, err := parseCSVAmount(rec[colCredit])
		if err != nil {
			return fmt.Errorf("row %d: parsing credit %q: %w", i+2, rec[colCredit], err)
		}

		// Signed split value: debits positive, credits negative.
		acct.splits = append(acct.splits, Split{
			Date:        date,
			Amount:      debit.Sub(credit),
			Description: rec[colDesc],
		})
	}
	return nil
}

func parseCSVAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// JournalEntry is one row to append to journal.csv.
type JournalEntry struct {
	Date        time.Time
	AccountID   int
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// AppendJournal appends entries to <dir>/journal.csv, creating the file
// and header if needed.
func AppendJournal(dir string, entries []JournalEntry) error {
	path := filepath.Join(dir, journalFile)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(JournalHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		row := make([]string, journalFields)
		row[colDate] = e.Date.Format(csvDateFormat)
		row[colJrnAcct] = strconv.Itoa(e.AccountID)
		row[colDesc] = e.Description
		if !e.Debit.IsZero() {
			row[colDebit] = e.Debit.String()
		}
		if !e.Credit.IsZero() {
			row[colCredit] = e.Credit.String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return cw.Error()
}

// AccountID returns the chart ID of a CSV account, for journal writes.
func (b *CSVBook) AccountID(path string) (int, error) {
	acct, err := b.Resolve(path)
	if err != nil {
		return 0, err
	}
	ca, ok := acct.(*csvAccount)
	if !ok {
		return 0, fmt.Errorf("account %q is not a CSV account", path)
	}
	return ca.id, nil
}
