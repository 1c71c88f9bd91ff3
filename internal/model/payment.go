package model

// Payment is a payment HMRC has received.
type Payment struct {
	Amount   Amount `json:"amount"`
	Received Date   `json:"received"`
}

// InRange reports whether the payment was received within [start, end].
func (p Payment) InRange(start, end Date) bool {
	return !p.Received.Before(start.Time) && !p.Received.After(end.Time)
}
