package model

import (
	"fmt"
	"strings"
)

// Return is one VAT return: the 9 box values plus metadata. Finalised
// must be true before submission; it is the taxpayer's legal
// declaration that the figures are complete.
type Return struct {
	PeriodKey                    string `json:"periodKey"`
	VATDueSales                  Amount `json:"vatDueSales"`
	VATDueAcquisitions           Amount `json:"vatDueAcquisitions"`
	TotalVATDue                  Amount `json:"totalVatDue"`
	VATReclaimedCurrPeriod       Amount `json:"vatReclaimedCurrPeriod"`
	NetVATDue                    Amount `json:"netVatDue"`
	TotalValueSalesExVAT         Amount `json:"totalValueSalesExVAT"`
	TotalValuePurchasesExVAT     Amount `json:"totalValuePurchasesExVAT"`
	TotalValueGoodsSuppliedExVAT Amount `json:"totalValueGoodsSuppliedExVAT"`
	TotalAcquisitionsExVAT       Amount `json:"totalAcquisitionsExVAT"`
	Finalised                    bool   `json:"finalised,omitempty"`
}

// Box returns the value of the named box.
func (r Return) Box(name string) (Amount, error) {
	switch name {
	case "vatDueSales":
		return r.VATDueSales, nil
	case "vatDueAcquisitions":
		return r.VATDueAcquisitions, nil
	case "totalVatDue":
		return r.TotalVATDue, nil
	case "vatReclaimedCurrPeriod":
		return r.VATReclaimedCurrPeriod, nil
	case "netVatDue":
		return r.NetVATDue, nil
	case "totalValueSalesExVAT":
		return r.TotalValueSalesExVAT, nil
	case "totalValuePurchasesExVAT":
		return r.TotalValuePurchasesExVAT, nil
	case "totalValueGoodsSuppliedExVAT":
		return r.TotalValueGoodsSuppliedExVAT, nil
	case "totalAcquisitionsExVAT":
		return r.TotalAcquisitionsExVAT, nil
	}
	return Amount{}, fmt.Errorf("unknown VAT box %q", name)
}

// SetBox assigns the value of the named box.
func (r *Return) SetBox(name string, v Amount) error {
	switch name {
	case "vatDueSales":
		r.VATDueSales = v
	case "vatDueAcquisitions":
		r.VATDueAcquisitions = v
	case "totalVatDue":
		r.TotalVATDue = v
	case "vatReclaimedCurrPeriod":
		r.VATReclaimedCurrPeriod = v
	case "netVatDue":
		r.NetVATDue = v
	case "totalValueSalesExVAT":
		r.TotalValueSalesExVAT = v
	case "totalValuePurchasesExVAT":
		r.TotalValuePurchasesExVAT = v
	case "totalValueGoodsSuppliedExVAT":
		r.TotalValueGoodsSuppliedExVAT = v
	case "totalAcquisitionsExVAT":
		r.TotalAcquisitionsExVAT = v
	default:
		return fmt.Errorf("unknown VAT box %q", name)
	}
	return nil
}

// String renders the return as an aligned box-by-box listing.
func (r Return) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-30s: %s\n", "Period Key", r.PeriodKey)
	for _, name := range BoxNames {
		v, _ := r.Box(name)
		fmt.Fprintf(&sb, "%-30s: %15s\n", BoxDescriptions[name], v.StringFixed(2))
	}
	return sb.String()
}

// SubmissionReceipt is the server's acknowledgement of a submitted
// return.
type SubmissionReceipt struct {
	ProcessingDate   string `json:"processingDate"`
	PaymentIndicator string `json:"paymentIndicator,omitempty"`
	FormBundleNumber string `json:"formBundleNumber"`
	ChargeRefNumber  string `json:"chargeRefNumber,omitempty"`
}
