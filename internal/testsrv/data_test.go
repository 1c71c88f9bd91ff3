package testsrv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

func TestFabricate(t *testing.T) {
	user, err := Fabricate("150423")
	require.NoError(t, err)

	require.Len(t, user.Obligations, 4)

	// Four consecutive 90-day periods ending around the anchor date.
	prev := user.Obligations[0]
	assert.Equal(t, "2022-09-17", prev.Start.String())
	for _, o := range user.Obligations[1:] {
		assert.True(t, o.Start.Equal(prev.End.Time), "periods are contiguous")
		assert.Equal(t, 90, int(o.End.Sub(o.Start.Time).Hours()/24))
		prev = o
	}

	// First two fulfilled, last two open.
	assert.Equal(t, model.StatusFulfilled, user.Obligations[0].Status)
	assert.Equal(t, model.StatusFulfilled, user.Obligations[1].Status)
	assert.Equal(t, model.StatusOpen, user.Obligations[2].Status)
	assert.Equal(t, model.StatusOpen, user.Obligations[3].Status)

	// Due dates run 30 days after period end.
	for _, o := range user.Obligations {
		require.NotNil(t, o.Due)
		assert.True(t, o.Due.Equal(o.End.AddDays(30).Time))
	}

	require.Len(t, user.Returns, 2)
	require.Len(t, user.Liabilities, 2)
	require.Len(t, user.Payments, 1)
}

func TestFabricateBadDate(t *testing.T) {
	_, err := Fabricate("999999")
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	user, err := Fabricate("150423")
	require.NoError(t, err)

	clone := user.Clone()
	clone.Obligations[2].Status = model.StatusFulfilled
	clone.Returns = append(clone.Returns, model.Return{PeriodKey: "#099"})

	assert.Equal(t, model.StatusOpen, user.Obligations[2].Status,
		"mutating a clone leaves the original alone")
	assert.Len(t, user.Returns, 2)
}

func TestAddReturn(t *testing.T) {
	user, err := Fabricate("150423")
	require.NoError(t, err)

	rtn := model.Return{
		PeriodKey: "#003",
		NetVATDue: model.AmountFromFloat(450.25),
		Finalised: true,
	}
	require.NoError(t, user.AddReturn(rtn))

	obl := user.Obligations[2]
	assert.Equal(t, model.StatusFulfilled, obl.Status)
	require.NotNil(t, obl.Received)
	assert.True(t, obl.Received.Equal(model.Today().Time))

	// A Net VAT liability due 30 days after period end.
	l := user.Liabilities[len(user.Liabilities)-1]
	assert.Equal(t, "Net VAT", l.Type)
	assert.True(t, l.Original.Equal(rtn.NetVATDue))
	require.NotNil(t, l.Outstanding)
	assert.True(t, l.Outstanding.Equal(rtn.NetVATDue))
	require.NotNil(t, l.Due)
	assert.True(t, l.Due.Equal(obl.End.AddDays(30).Time))

	assert.Equal(t, rtn, user.Returns[len(user.Returns)-1])
}

func TestAddReturnNoOpenObligation(t *testing.T) {
	user, err := Fabricate("150423")
	require.NoError(t, err)

	// Fulfilled period keys don't match.
	err = user.AddReturn(model.Return{PeriodKey: "#000", Finalised: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match an open obligation")

	// Neither do unknown ones.
	err = user.AddReturn(model.Return{PeriodKey: "#999", Finalised: true})
	assert.Error(t, err)
}

func TestLoadTemplate(t *testing.T) {
	data := []byte(`{
		"TEMPLATE": {
			"obligations": [
				{"status": "O", "periodKey": "#A01",
				 "start": "2023-01-01", "end": "2023-03-31",
				 "due": "2023-04-30"}
			],
			"returns": [], "liabilities": [], "payments": []
		}
	}`)
	tmpl, err := LoadTemplate(data)
	require.NoError(t, err)
	require.Len(t, tmpl.Obligations, 1)
	assert.Equal(t, "#A01", tmpl.Obligations[0].PeriodKey)

	_, err = LoadTemplate([]byte(`{"other": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no TEMPLATE")

	_, err = LoadTemplate([]byte(`not json`))
	assert.Error(t, err)
}

func TestStoreMagicVRN(t *testing.T) {
	store := NewStore(DefaultTemplate())

	var periodEnd model.Date
	err := store.With("999010120", func(u *VATUser) error {
		require.Len(t, u.Obligations, 4)
		periodEnd = u.Obligations[0].End
		return nil
	})
	require.NoError(t, err)

	// The dataset is anchored to the date encoded in the VRN.
	anchor := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	expect := model.DateOf(anchor).AddDays(-210).AddDays(90)
	assert.True(t, periodEnd.Equal(expect.Time))
}

func TestStoreTemplateFallback(t *testing.T) {
	tmpl, err := Fabricate("150423")
	require.NoError(t, err)
	store := NewStore(tmpl)

	// A non-magic VRN gets its own clone of the template.
	require.NoError(t, store.With("123456789", func(u *VATUser) error {
		return u.AddReturn(model.Return{PeriodKey: "#003", Finalised: true})
	}))

	store.With("123456789", func(u *VATUser) error {
		assert.Equal(t, model.StatusFulfilled, u.Obligations[2].Status,
			"state persists per VRN")
		return nil
	})
	store.With("987654321", func(u *VATUser) error {
		assert.Equal(t, model.StatusOpen, u.Obligations[2].Status,
			"other VRNs are unaffected")
		return nil
	})
	assert.Equal(t, model.StatusOpen, tmpl.Obligations[2].Status,
		"the template itself is never mutated")
}
