package model

// BoxNames lists the 9 VAT return boxes in form order. Box n on the
// paper form is BoxNames[n-1].
var BoxNames = []string{
	"vatDueSales",
	"vatDueAcquisitions",
	"totalVatDue",
	"vatReclaimedCurrPeriod",
	"netVatDue",
	"totalValueSalesExVAT",
	"totalValuePurchasesExVAT",
	"totalValueGoodsSuppliedExVAT",
	"totalAcquisitionsExVAT",
}

// BoxDescriptions gives the human-readable label for each box.
var BoxDescriptions = map[string]string{
	"vatDueSales":                  "VAT due on sales",
	"vatDueAcquisitions":           "VAT due on acquisitions",
	"totalVatDue":                  "Total VAT due",
	"vatReclaimedCurrPeriod":       "VAT reclaimed",
	"netVatDue":                    "VAT due",
	"totalValueSalesExVAT":         "Sales before VAT",
	"totalValuePurchasesExVAT":     "Purchases ex. VAT",
	"totalValueGoodsSuppliedExVAT": "Goods supplied ex. VAT",
	"totalAcquisitionsExVAT":       "Total acquisitions ex. VAT",
}
