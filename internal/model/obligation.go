package model

// ObligationStatus is a VAT reporting period's filing state.
type ObligationStatus string

const (
	StatusOpen      ObligationStatus = "O"
	StatusFulfilled ObligationStatus = "F"
)

// Obligation is one VAT reporting period. Received is set iff the
// obligation has been fulfilled.
type Obligation struct {
	Status    ObligationStatus `json:"status"`
	PeriodKey string           `json:"periodKey"`
	Start     Date             `json:"start"`
	End       Date             `json:"end"`
	Received  *Date            `json:"received,omitempty"`
	Due       *Date            `json:"due,omitempty"`
}

// InRange reports whether the obligation's period end falls within
// [start, end].
func (o Obligation) InRange(start, end Date) bool {
	return !o.End.Before(start.Time) && !o.End.After(end.Time)
}
