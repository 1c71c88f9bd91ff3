package model

import "encoding/json"

// Liability is an amount owed for a tax period. Outstanding is absent
// when the source does not report an unpaid balance.
type Liability struct {
	Start       Date
	End         Date
	Type        string
	Original    Amount
	Outstanding *Amount
	Due         *Date
}

// taxPeriod is the nested wire representation of a liability's period.
type taxPeriod struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

type liabilityWire struct {
	Type        string     `json:"type"`
	Original    Amount     `json:"originalAmount"`
	Outstanding *Amount    `json:"outstandingAmount,omitempty"`
	TaxPeriod   *taxPeriod `json:"taxPeriod,omitempty"`
	Due         *Date      `json:"due,omitempty"`
}

// MarshalJSON renders the HMRC wire shape, with the period nested
// under taxPeriod.
func (l Liability) MarshalJSON() ([]byte, error) {
	w := liabilityWire{
		Type:        l.Type,
		Original:    l.Original,
		Outstanding: l.Outstanding,
		Due:         l.Due,
	}
	if !l.Start.IsZero() && !l.End.IsZero() {
		w.TaxPeriod = &taxPeriod{From: l.Start, To: l.End}
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the HMRC wire shape.
func (l *Liability) UnmarshalJSON(b []byte) error {
	var w liabilityWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	l.Type = w.Type
	l.Original = w.Original
	l.Outstanding = w.Outstanding
	l.Due = w.Due
	if w.TaxPeriod != nil {
		l.Start = w.TaxPeriod.From
		l.End = w.TaxPeriod.To
	} else {
		l.Start = Date{}
		l.End = Date{}
	}
	return nil
}

// InRange reports whether the liability's period overlaps [start, end].
func (l Liability) InRange(start, end Date) bool {
	if !l.Start.Before(start.Time) && !l.Start.After(end.Time) {
		return true
	}
	if !l.End.Before(start.Time) && !l.End.After(end.Time) {
		return true
	}
	if !l.Start.After(start.Time) && !l.End.Before(end.Time) {
		return true
	}
	return false
}
