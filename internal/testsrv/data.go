package testsrv

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

// VATUser is one VRN's dataset: obligations, filed returns,
// liabilities and payments.
type VATUser struct {
	Obligations []model.Obligation `json:"obligations"`
	Returns     []model.Return     `json:"returns"`
	Liabilities []model.Liability  `json:"liabilities"`
	Payments    []model.Payment    `json:"payments"`
}

// Clone deep-copies a dataset so per-VRN mutation can't leak into the
// template.
func (u *VATUser) Clone() *VATUser {
	data, err := json.Marshal(u)
	if err != nil {
		panic("cloning VAT data: " + err.Error())
	}
	var out VATUser
	if err := json.Unmarshal(data, &out); err != nil {
		panic("cloning VAT data: " + err.Error())
	}
	return &out
}

// AddReturn records a submitted return: the matching open obligation
// becomes fulfilled and a liability for the net VAT due is raised.
// This is the same state transition the live API performs.
func (u *VATUser) AddReturn(rtn model.Return) error {
	var obl *model.Obligation
	for i := range u.Obligations {
		o := &u.Obligations[i]
		if o.PeriodKey == rtn.PeriodKey && o.Status == model.StatusOpen {
			obl = o
		}
	}
	if obl == nil {
		return fmt.Errorf("periodKey %q does not match an open obligation", rtn.PeriodKey)
	}

	obl.Status = model.StatusFulfilled
	obl.Received = model.DatePtr(model.Today())

	due := obl.End.AddDays(30)
	outstanding := rtn.NetVATDue
	u.Liabilities = append(u.Liabilities, model.Liability{
		Start:       obl.Start,
		End:         obl.End,
		Type:        "Net VAT",
		Original:    rtn.NetVATDue,
		Outstanding: &outstanding,
		Due:         model.DatePtr(due),
	})
	u.Returns = append(u.Returns, rtn)
	return nil
}

// LoadTemplate reads a VRN-keyed data file and returns the dataset
// stored under "TEMPLATE".
func LoadTemplate(data []byte) (*VATUser, error) {
	var byVRN map[string]*VATUser
	if err := json.Unmarshal(data, &byVRN); err != nil {
		return nil, fmt.Errorf("parsing VAT data: %w", err)
	}
	tmpl, ok := byVRN["TEMPLATE"]
	if !ok {
		return nil, fmt.Errorf("VAT data has no TEMPLATE record")
	}
	return tmpl, nil
}

// DefaultTemplate is the dataset served to VRNs that don't encode a
// date, matching the shipped vat-data.json fixture.
func DefaultTemplate() *VATUser {
	anchor, _ := Fabricate("150423")
	return anchor
}

// Fabricate synthesises a deterministic dataset around a DDMMYY date:
// four successive ~90-day periods, the first two fulfilled, the last
// two open, with a payment and liabilities for the early periods.
func Fabricate(ddmmyy string) (*VATUser, error) {
	anchor, err := time.Parse("020106", ddmmyy)
	if err != nil {
		return nil, fmt.Errorf("parsing magic VRN date %q: %w", ddmmyy, err)
	}

	// Period boundaries run 90 days each, starting 210 days before
	// the anchor; real VAT periods are calendar months, this is close
	// enough for a test double.
	type period struct {
		start, end, due, paid model.Date
	}
	var periods [4]period
	start := model.DateOf(anchor).AddDays(-210)
	for i := range periods {
		periods[i].start = start
		periods[i].end = start.AddDays(90)
		periods[i].due = periods[i].end.AddDays(30)
		periods[i].paid = periods[i].due.AddDays(-5)
		start = start.AddDays(90)
	}

	cannedReturn := func(key string) model.Return {
		return model.Return{
			PeriodKey:                    key,
			VATDueSales:                  model.AmountFromFloat(100),
			VATDueAcquisitions:           model.AmountFromFloat(120),
			TotalVATDue:                  model.AmountFromFloat(220),
			VATReclaimedCurrPeriod:       model.AmountFromFloat(30),
			NetVATDue:                    model.AmountFromFloat(180),
			TotalValueSalesExVAT:         model.AmountFromFloat(1000),
			TotalValuePurchasesExVAT:     model.AmountFromFloat(1200),
			TotalValueGoodsSuppliedExVAT: model.AmountFromFloat(50),
			TotalAcquisitionsExVAT:       model.AmountFromFloat(30),
		}
	}

	outstanding := model.AmountFromFloat(1100)

	return &VATUser{
		Payments: []model.Payment{
			{Amount: model.AmountFromFloat(123.45), Received: periods[0].paid},
		},
		Liabilities: []model.Liability{
			{
				Start:    periods[0].start,
				End:      periods[0].end,
				Type:     "Net VAT",
				Original: model.AmountFromFloat(1100),
				Due:      model.DatePtr(periods[0].due),
			},
			{
				Start:       periods[1].start,
				End:         periods[1].end,
				Type:        "Net VAT",
				Original:    model.AmountFromFloat(1100),
				Outstanding: &outstanding,
				Due:         model.DatePtr(periods[1].due),
			},
		},
		Returns: []model.Return{
			cannedReturn("#000"),
			cannedReturn("#001"),
		},
		Obligations: []model.Obligation{
			{
				Status:    model.StatusFulfilled,
				PeriodKey: "#000",
				Start:     periods[0].start,
				End:       periods[0].end,
				Received:  model.DatePtr(periods[0].paid),
				Due:       model.DatePtr(periods[0].due),
			},
			{
				Status:    model.StatusFulfilled,
				PeriodKey: "#002",
				Start:     periods[1].start,
				End:       periods[1].end,
				Received:  model.DatePtr(periods[1].paid),
				Due:       model.DatePtr(periods[1].due),
			},
			{
				Status:    model.StatusOpen,
				PeriodKey: "#003",
				Start:     periods[2].start,
				End:       periods[2].end,
				Due:       model.DatePtr(periods[2].due),
			},
			{
				Status:    model.StatusOpen,
				PeriodKey: "#004",
				Start:     periods[3].start,
				End:       periods[3].end,
				Due:       model.DatePtr(periods[3].due),
			},
		},
	}, nil
}

// Store holds per-VRN datasets, materialised on first access.
type Store struct {
	mu       sync.Mutex
	template *VATUser
	data     map[string]*VATUser
}

// NewStore creates a store backed by a template dataset.
func NewStore(template *VATUser) *Store {
	return &Store{template: template, data: make(map[string]*VATUser)}
}

// get materialises the dataset for a VRN. Callers hold s.mu. A VRN of
// the form 999DDMMYY yields a deterministic dataset anchored to the
// encoded date; anything else gets a copy of the template.
func (s *Store) get(vrn string) *VATUser {
	if user, ok := s.data[vrn]; ok {
		return user
	}

	if strings.HasPrefix(vrn, "999") && len(vrn) == 9 {
		if user, err := Fabricate(vrn[3:]); err == nil {
			s.data[vrn] = user
			return user
		}
	}

	s.data[vrn] = s.template.Clone()
	return s.data[vrn]
}

// With runs fn against a VRN's dataset under the store lock.
func (s *Store) With(vrn string, fn func(*VATUser) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.get(vrn))
}
