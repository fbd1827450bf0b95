package model

// InvoiceDocument is everything the invoice PDF prints.
type InvoiceDocument struct {
	Invoice      Invoice
	ProjectName  string
	OfftakerName string
	OfftakerMail string
	CompanyName  string
	SupportEmail string
}

// PayoutStatement is an investor's payouts for one calendar year.
type PayoutStatement struct {
	InvestorName string
	Year         int
	Payouts      []Payout
	ProjectNames map[int64]string
}
