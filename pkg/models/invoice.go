package models

import "time"

// ProviderInvoice is the commission invoice issued by a non-domiciled
// provider, as read from its PDF. It seeds the ND Pago Fácil voucher.
type ProviderInvoice struct {
	InvoiceNumber   string    // Invoice number as printed, e.g. GE/0002499
	Provider        string    // Supplier name
	ProviderAddress string    // Supplier address
	IssueDate       time.Time // Date the invoice was issued
	PaymentDate     time.Time // Service payment date when the invoice states one
	NetAmount       float64   // Commission before taxes, in Currency
	TotalAmount     float64   // Invoice total, in Currency
	Currency        string    // ISO code, USD for every known provider
	Period          string    // Commission period label, e.g. "Abril - Junio 2025"

	Confidence map[string]float32 // Document AI confidence per entity type
}
