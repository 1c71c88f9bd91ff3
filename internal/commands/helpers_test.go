package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("due-date", "2023-04-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDateFlag("due-date", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--due-date is required")

	_, err = parseDateFlag("due-date", "30/04/2023")
	assert.Error(t, err)
}

func TestDateRangeFlags(t *testing.T) {
	s, e, err := dateRangeFlags("2023-01-01", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", s.Format("2006-01-02"))
	assert.Equal(t, "2023-12-31", e.Format("2006-01-02"))

	// Defaults cover roughly the last two years.
	s, e, err = dateRangeFlags("", "")
	require.NoError(t, err)
	assert.True(t, s.Before(e))
	assert.InDelta(t, 2*356*24, e.Sub(s).Hours(), 1)

	_, _, err = dateRangeFlags("bad", "")
	assert.Error(t, err)
}

func TestObligationByDue(t *testing.T) {
	obs := []model.Obligation{
		{
			PeriodKey: "#003",
			Due:       model.DatePtr(model.NewDate(2023, time.April, 30)),
		},
		{
			PeriodKey: "#004",
			Due:       model.DatePtr(model.NewDate(2023, time.July, 31)),
		},
		{PeriodKey: "#005"},
	}

	obl, err := obligationByDue(obs, time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "#004", obl.PeriodKey)

	_, err = obligationByDue(obs, time.Date(2023, 8, 31, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObligationNotFound))
}

func TestConfirmSubmission(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirmSubmission(strings.NewReader("yes\n"), &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "legal")

	ok, err = confirmSubmission(strings.NewReader("no\n"), &out)
	require.NoError(t, err)
	assert.False(t, ok)

	// Anything else re-prompts until an explicit answer arrives.
	out.Reset()
	ok, err = confirmSubmission(strings.NewReader("maybe\nYES\nyes\n"), &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Answer not recognised.")

	// EOF without an answer is an error, not a yes.
	_, err = confirmSubmission(strings.NewReader(""), &out)
	assert.Error(t, err)
}

func TestDateOrEmpty(t *testing.T) {
	assert.Equal(t, "", dateOrEmpty(nil))
	d := model.NewDate(2023, time.April, 30)
	assert.Equal(t, "2023-04-30", dateOrEmpty(&d))
}

func TestAmountOrEmpty(t *testing.T) {
	assert.Equal(t, "", amountOrEmpty(nil))
	a := model.AmountFromFloat(1100)
	assert.Equal(t, "1100.00", amountOrEmpty(&a))
}
