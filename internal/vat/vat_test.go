package vat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/ledger"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

const testChart = `account_id,account_name,account_type,parent_id,description
1,VAT,liability,,VAT control
2,Output,liability,1,
3,Input,asset,1,
4,Sales,income,,
5,Purchases,expense,,
6,Empty,income,,
7,Refunds,income,4,
`

const testJournal = `date,account_id,description,debit,credit
2023-01-15,2,Widget sale VAT,,20.00
2023-02-20,2,Gadget sale VAT,,35.505
2023-04-05,2,Out of period,,99.00
2023-01-20,3,Input VAT,10.00,
2023-01-15,4,Widget sale,,100.00
2023-02-01,4,Gadget sale,,50.40
2023-01-25,5,Stationery,200.60,
2023-02-10,7,Customer refund,30.00,
`

var (
	periodStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)
)

func openTestBook(t *testing.T) ledger.Book {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chart-of-accounts.csv"), []byte(testChart), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "journal.csv"), []byte(testJournal), 0o644))
	book, err := ledger.OpenCSV(dir)
	require.NoError(t, err)
	return book
}

func testAccounts() config.AccountsConfig {
	return config.AccountsConfig{
		Kind:                         "csv",
		File:                         "ignored",
		VATDueSales:                  config.NewLocator("VAT:Output"),
		VATDueAcquisitions:           config.NewLocator("Empty"),
		TotalVATDue:                  config.NewLocator("VAT:Output"),
		VATReclaimedCurrPeriod:       config.NewLocator("VAT:Input"),
		NetVATDue:                    config.NewLocator("VAT"),
		TotalValueSalesExVAT:         config.NewLocator("Sales"),
		TotalValuePurchasesExVAT:     config.NewLocator("Purchases"),
		TotalValueGoodsSuppliedExVAT: config.NewLocator("Empty"),
		TotalAcquisitionsExVAT:       config.NewLocator("Empty"),
	}
}

func TestCompute(t *testing.T) {
	book := openTestBook(t)
	results, err := Compute(book, testAccounts(), periodStart, periodEnd)
	require.NoError(t, err)
	require.Len(t, results, 9)

	// Credits on the liability account flip positive; the April entry
	// is outside the period.
	assert.Equal(t, "55.51", results["vatDueSales"].Total.String())
	assert.Len(t, results["vatDueSales"].Splits, 2)

	// Asset account debits keep their sign.
	assert.Equal(t, "10", results["vatReclaimedCurrPeriod"].Total.String())

	// The parent VAT account nets output against input.
	assert.Equal(t, "45.51", results["netVatDue"].Total.String())

	assert.Equal(t, "0", results["vatDueAcquisitions"].Total.String())
	assert.Empty(t, results["vatDueAcquisitions"].Splits)
}

func TestComputeWholePoundBoxes(t *testing.T) {
	book := openTestBook(t)
	results, err := Compute(book, testAccounts(), periodStart, periodEnd)
	require.NoError(t, err)

	// Boxes 6-9 are rounded to whole pounds. Sales credits include the
	// refund account's debit, all sign-flipped.
	assert.Equal(t, "120", results["totalValueSalesExVAT"].Total.String())
	assert.Equal(t, "201", results["totalValuePurchasesExVAT"].Total.String())
}

func TestComputeNetVATDueAbsolute(t *testing.T) {
	book := openTestBook(t)
	accounts := testAccounts()
	// A repayment period: the flipped refund debit goes negative.
	accounts.NetVATDue = config.NewLocator("Sales:Refunds")
	results, err := Compute(book, accounts, periodStart, periodEnd)
	require.NoError(t, err)

	assert.Equal(t, "30", results["netVatDue"].Total.String())
	assert.False(t, results["netVatDue"].Total.IsNegative())
}

func TestComputeMultipleAccounts(t *testing.T) {
	book := openTestBook(t)
	accounts := testAccounts()
	accounts.VATDueSales = config.NewLocator("VAT:Output", "Sales:Refunds")
	results, err := Compute(book, accounts, periodStart, periodEnd)
	require.NoError(t, err)

	// 55.505 from output VAT, -30 from the flipped refund.
	assert.Equal(t, "25.51", results["vatDueSales"].Total.String())
	assert.Len(t, results["vatDueSales"].Splits, 3)
}

func TestComputeSignConvention(t *testing.T) {
	// Raw debit splits of 100 and 50 on an income account come out
	// negated.
	chart := `account_id,account_name,account_type,parent_id,description
1,Sales,income,,
2,VAT,income,1,
3,Empty,income,,
`
	journal := `date,account_id,description,debit,credit
2023-01-15,2,Adjustment,100.00,
2023-02-10,2,Adjustment,50.00,
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chart-of-accounts.csv"), []byte(chart), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "journal.csv"), []byte(journal), 0o644))
	book, err := ledger.OpenCSV(dir)
	require.NoError(t, err)

	accounts := config.AccountsConfig{
		Kind:                         "csv",
		File:                         dir,
		VATDueSales:                  config.NewLocator("Sales:VAT"),
		VATDueAcquisitions:           config.NewLocator("Empty"),
		TotalVATDue:                  config.NewLocator("Sales:VAT"),
		VATReclaimedCurrPeriod:       config.NewLocator("Empty"),
		NetVATDue:                    config.NewLocator("Sales:VAT"),
		TotalValueSalesExVAT:         config.NewLocator("Empty"),
		TotalValuePurchasesExVAT:     config.NewLocator("Empty"),
		TotalValueGoodsSuppliedExVAT: config.NewLocator("Empty"),
		TotalAcquisitionsExVAT:       config.NewLocator("Empty"),
	}

	results, err := Compute(book, accounts, periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, "-150", results["vatDueSales"].Total.String())
	assert.Equal(t, "150", results["netVatDue"].Total.String(),
		"box 5 takes the absolute value")
}

func TestComputeBackendsAgree(t *testing.T) {
	csvDir := t.TempDir()
	chart := `account_id,account_name,account_type,parent_id,description
1,VAT,liability,,
2,Output,liability,1,
3,Empty,income,,
`
	journal := `date,account_id,description,debit,credit
2023-01-15,2,Widget sale VAT,,20.00
`
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "chart-of-accounts.csv"), []byte(chart), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "journal.csv"), []byte(journal), 0o644))
	csvBook, err := ledger.OpenCSV(csvDir)
	require.NoError(t, err)

	xmlBook, err := ledger.ParseXML([]byte(`<gnc-v2><gnc:book>
<gnc:account><act:name>Root</act:name><act:id>r</act:id><act:type>ROOT</act:type></gnc:account>
<gnc:account><act:name>VAT</act:name><act:id>v</act:id><act:type>LIABILITY</act:type><act:parent>r</act:parent></gnc:account>
<gnc:account><act:name>Output</act:name><act:id>o</act:id><act:type>LIABILITY</act:type><act:parent>v</act:parent></gnc:account>
<gnc:account><act:name>Empty</act:name><act:id>e</act:id><act:type>INCOME</act:type><act:parent>r</act:parent></gnc:account>
<gnc:transaction>
  <trn:description>Widget sale VAT</trn:description>
  <trn:date-posted><ts:date>2023-01-15 00:00:00 +0000</ts:date></trn:date-posted>
  <trn:splits><trn:split>
    <split:value>-2000/100</split:value>
    <split:account>o</split:account>
  </trn:split></trn:splits>
</gnc:transaction>
</gnc:book></gnc-v2>`))
	require.NoError(t, err)

	accounts := config.AccountsConfig{
		Kind:                         "csv",
		File:                         csvDir,
		VATDueSales:                  config.NewLocator("VAT:Output"),
		VATDueAcquisitions:           config.NewLocator("Empty"),
		TotalVATDue:                  config.NewLocator("VAT:Output"),
		VATReclaimedCurrPeriod:       config.NewLocator("Empty"),
		NetVATDue:                    config.NewLocator("VAT"),
		TotalValueSalesExVAT:         config.NewLocator("Empty"),
		TotalValuePurchasesExVAT:     config.NewLocator("Empty"),
		TotalValueGoodsSuppliedExVAT: config.NewLocator("Empty"),
		TotalAcquisitionsExVAT:       config.NewLocator("Empty"),
	}

	fromCSV, err := Compute(csvBook, accounts, periodStart, periodEnd)
	require.NoError(t, err)
	fromXML, err := Compute(xmlBook, accounts, periodStart, periodEnd)
	require.NoError(t, err)

	for _, name := range model.BoxNames {
		assert.True(t, fromCSV[name].Total.Equal(fromXML[name].Total),
			"box %s: csv %s vs xml %s", name,
			fromCSV[name].Total, fromXML[name].Total)
	}
	assert.Equal(t, "20", fromCSV["vatDueSales"].Total.String())
}

func TestComputeUnknownAccount(t *testing.T) {
	book := openTestBook(t)
	accounts := testAccounts()
	accounts.TotalVATDue = config.NewLocator("VAT:Nonexistent")
	_, err := Compute(book, accounts, periodStart, periodEnd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))
	assert.Contains(t, err.Error(), "totalVatDue")
}

func TestComputeMissingLocator(t *testing.T) {
	book := openTestBook(t)
	accounts := testAccounts()
	accounts.TotalAcquisitionsExVAT = config.Locator{}
	_, err := Compute(book, accounts, periodStart, periodEnd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidLocatorType))
}

func TestBuildReturn(t *testing.T) {
	book := openTestBook(t)
	results, err := Compute(book, testAccounts(), periodStart, periodEnd)
	require.NoError(t, err)

	rtn, err := BuildReturn("#003", results)
	require.NoError(t, err)
	assert.Equal(t, "#003", rtn.PeriodKey)
	assert.True(t, rtn.Finalised)
	assert.Equal(t, "55.51", rtn.VATDueSales.String())
	assert.Equal(t, "45.51", rtn.NetVATDue.String())
	assert.Equal(t, "120", rtn.TotalValueSalesExVAT.String())
}

func TestBuildReturnMissingBox(t *testing.T) {
	_, err := BuildReturn("#003", map[string]BoxResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no computed value")
}
