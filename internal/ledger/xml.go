package ledger

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// The XML backend reads a GnuCash XML book (v2), plain or gzip
// compressed. Only the account tree and transaction splits are
// extracted; business objects (vendors, bills) are ignored.

// xmlAccount is a GnuCash account node.
type xmlAccount struct {
	guid     string
	name     string
	typ      AccountType
	children []*xmlAccount
	splits   []Split
}

func (a *xmlAccount) Name() string      { return a.name }
func (a *xmlAccount) Type() AccountType { return a.typ }
func (a *xmlAccount) Splits() []Split   { return a.splits }

func (a *xmlAccount) Children() []Account {
	out := make([]Account, len(a.children))
	for i, ch := range a.children {
		out[i] = ch
	}
	return out
}

// XMLBook is a GnuCash XML ledger.
type XMLBook struct {
	root *xmlAccount
}

// Root returns the book's root account.
func (b *XMLBook) Root() Account { return b.root }

// Resolve looks up an account by colon-separated path.
func (b *XMLBook) Resolve(path string) (Account, error) {
	return resolvePath(b.root, path)
}

// OpenXML opens a GnuCash XML file.
func OpenXML(path string) (*XMLBook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening GnuCash file: %w", err)
	}

	// GnuCash compresses books by default.
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decompressing GnuCash file: %w", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompressing GnuCash file: %w", err)
		}
	}

	return ParseXML(raw)
}

// ParseXML parses GnuCash XML book content.
func ParseXML(data []byte) (*XMLBook, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing GnuCash XML: %w", err)
	}

	book := doc.FindElement("//gnc:book")
	if book == nil {
		return nil, fmt.Errorf("parsing GnuCash XML: no gnc:book element")
	}

	byGUID := make(map[string]*xmlAccount)
	parents := make(map[string]string)
	var root *xmlAccount

	for _, el := range book.SelectElements("gnc:account") {
		acct := &xmlAccount{
			guid: childText(el, "act:id"),
			name: childText(el, "act:name"),
			typ:  AccountType(strings.ToUpper(childText(el, "act:type"))),
		}
		if acct.guid == "" {
			return nil, fmt.Errorf("parsing GnuCash XML: account %q has no id", acct.name)
		}
		byGUID[acct.guid] = acct
		if acct.typ == TypeRoot {
			root = acct
			continue
		}
		parents[acct.guid] = childText(el, "act:parent")
	}

	if root == nil {
		return nil, fmt.Errorf("parsing GnuCash XML: no ROOT account")
	}

	for guid, acct := range byGUID {
		if acct == root {
			continue
		}
		parent, ok := byGUID[parents[guid]]
		if !ok {
			return nil, fmt.Errorf("account %q references missing parent", acct.name)
		}
		parent.children = append(parent.children, acct)
	}

	for _, el := range book.SelectElements("gnc:transaction") {
		date, err := transactionDate(el)
		if err != nil {
			return nil, err
		}
		desc := childText(el, "trn:description")

		splitsEl := el.SelectElement("trn:splits")
		if splitsEl == nil {
			continue
		}
		for _, sp := range splitsEl.SelectElements("trn:split") {
			guid := childText(sp, "split:account")
			acct, ok := byGUID[guid]
			if !ok {
				return nil, fmt.Errorf("transaction %q references missing account %q", desc, guid)
			}
			value, err := parseRational(childText(sp, "split:value"))
			if err != nil {
				return nil, fmt.Errorf("transaction %q: %w", desc, err)
			}
			acct.splits = append(acct.splits, Split{
				Date:        date,
				Amount:      value,
				Description: desc,
			})
		}
	}

	return &XMLBook{root: root}, nil
}

func childText(el *etree.Element, tag string) string {
	if ch := el.SelectElement(tag); ch != nil {
		return strings.TrimSpace(ch.Text())
	}
	return ""
}

// transactionDate extracts the posting date, which GnuCash stores as
// "2006-01-02 15:04:05 -0700". Only the date part matters here.
func transactionDate(trn *etree.Element) (time.Time, error) {
	posted := trn.SelectElement("trn:date-posted")
	if posted == nil {
		return time.Time{}, fmt.Errorf("transaction has no date-posted")
	}
	raw := childText(posted, "ts:date")
	if len(raw) < 10 {
		return time.Time{}, fmt.Errorf("malformed posting date %q", raw)
	}
	t, err := time.Parse("2006-01-02", raw[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing posting date %q: %w", raw, err)
	}
	return t, nil
}

// parseRational parses GnuCash's "numerator/denominator" value form,
// falling back to a plain decimal.
func parseRational(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing split value %q: %w", s, err)
		}
		return d, nil
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing split value %q: %w", s, err)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil || d == 0 {
		return decimal.Zero, fmt.Errorf("parsing split value %q: bad denominator", s)
	}
	return decimal.NewFromInt(n).Div(decimal.NewFromInt(d)), nil
}
