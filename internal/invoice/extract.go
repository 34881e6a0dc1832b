package invoice

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"

	"igvtools/internal/money"
	"igvtools/pkg/models"
)

// mapDocument converts the entities of a parsed invoice into a
// ProviderInvoice. Fields the parser missed are searched in the OCR text.
func mapDocument(doc *documentaipb.Document, log zerolog.Logger) *models.ProviderInvoice {
	inv := &models.ProviderInvoice{
		Currency:   "USD",
		Confidence: make(map[string]float32),
	}

	for _, entity := range doc.GetEntities() {
		value := strings.TrimSpace(entity.GetMentionText())
		inv.Confidence[entity.GetType()] = entity.GetConfidence()

		log.Debug().
			Str("entity_type", entity.GetType()).
			Str("value", value).
			Float32("confidence", entity.GetConfidence()).
			Msg("Processing Document AI entity")

		switch entity.GetType() {
		case "invoice_id", "invoice_number":
			inv.InvoiceNumber = value
		case "supplier_name", "vendor_name":
			inv.Provider = value
		case "supplier_address", "remit_to_address":
			if inv.ProviderAddress == "" {
				inv.ProviderAddress = strings.Join(strings.Fields(value), " ")
			}
		case "invoice_date":
			if date, err := extractDate(entity); err == nil {
				inv.IssueDate = date
			}
		case "due_date", "payment_date":
			if date, err := extractDate(entity); err == nil {
				inv.PaymentDate = date
			}
		case "net_amount", "subtotal_amount":
			if amount, err := extractMoneyValue(entity); err == nil {
				inv.NetAmount = amount
			} else {
				log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract net amount from Document AI")
			}
		case "total_amount":
			if amount, err := extractMoneyValue(entity); err == nil {
				inv.TotalAmount = amount
			} else {
				log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract total amount from Document AI")
			}
		case "currency":
			if value != "" {
				inv.Currency = normalizeCurrency(value)
			}
		}
	}

	if inv.InvoiceNumber == "" {
		if n := invoiceNumberFromText(doc.GetText()); n != "" {
			inv.InvoiceNumber = n
			inv.Confidence["invoice_number_fallback"] = 0.6
			log.Info().Str("fallback_number", n).Msg("Invoice number extracted from OCR text")
		}
	}
	inv.Period = commissionPeriod(doc.GetText())

	// Non-domiciled managers bill no local tax: net and total coincide.
	if inv.NetAmount == 0 {
		inv.NetAmount = inv.TotalAmount
	}
	if inv.TotalAmount == 0 {
		inv.TotalAmount = inv.NetAmount
	}

	log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("provider", inv.Provider).
		Float64("net_amount", inv.NetAmount).
		Str("currency", inv.Currency).
		Str("period", inv.Period).
		Msg("Document AI extraction completed")

	return inv
}

// extractDate reads a date entity, preferring the normalized value.
func extractDate(entity *documentaipb.Document_Entity) (time.Time, error) {
	if d := entity.GetNormalizedValue().GetDateValue(); d != nil {
		return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC), nil
	}
	return parseDate(entity.GetMentionText())
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

func parseDate(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, format := range dateFormats {
		if date, err := time.Parse(format, s); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// extractMoneyValue reads an amount entity, preferring the normalized value.
func extractMoneyValue(entity *documentaipb.Document_Entity) (float64, error) {
	if m := entity.GetNormalizedValue().GetMoneyValue(); m != nil {
		return money.Round2(float64(m.Units) + float64(m.Nanos)/1e9), nil
	}
	text := strings.TrimSpace(entity.GetMentionText())
	if text == "" {
		return 0, fmt.Errorf("empty amount value")
	}
	amount := money.ParseAmount(text)
	if amount == 0 && strings.ContainsAny(text, "123456789") {
		return 0, fmt.Errorf("unable to parse amount: %s", text)
	}
	return amount, nil
}

// normalizeCurrency standardizes currency codes to ISO codes.
func normalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	switch normalized {
	case "$", "US$", "DOLLAR", "DOLLARS", "USD", "DÓLARES":
		return "USD"
	case "S/", "S/.", "SOLES", "PEN":
		return "PEN"
	case "€", "EURO", "EUROS", "EUR":
		return "EUR"
	}
	if len(normalized) == 3 {
		return normalized
	}
	return "USD"
}

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z]{2,3}/\d{6,8})\b`),
	regexp.MustCompile(`(?i)(?:invoice|factura)\s*(?:no\.?|nr\.?|number|n[°º]|#)?\s*[:\-]?\s*([A-Z0-9][A-Z0-9/\-]{4,19})`),
}

// invoiceNumberFromText searches the OCR text for an invoice number such as
// "GE/0002499".
func invoiceNumberFromText(text string) string {
	for _, re := range invoiceNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if strings.ContainsAny(m[1], "0123456789") {
				return m[1]
			}
		}
	}
	return ""
}

var monthsES = map[string]string{
	"enero": "Enero", "febrero": "Febrero", "marzo": "Marzo", "abril": "Abril",
	"mayo": "Mayo", "junio": "Junio", "julio": "Julio", "agosto": "Agosto",
	"septiembre": "Setiembre", "setiembre": "Setiembre", "octubre": "Octubre",
	"noviembre": "Noviembre", "diciembre": "Diciembre",
	"january": "Enero", "february": "Febrero", "march": "Marzo", "april": "Abril",
	"may": "Mayo", "june": "Junio", "july": "Julio", "august": "Agosto",
	"september": "Setiembre", "october": "Octubre", "november": "Noviembre",
	"december": "Diciembre",
}

var periodPattern = regexp.MustCompile(`(?i)\b([a-z]+)(?:\s*[-–]\s*|\s+(?:to|a|al)\s+)([a-z]+)\s*(?:de\s+|,\s*)?(\d{4})\b`)

// commissionPeriod finds a billed range like "April - June 2025" and
// renders it in Spanish ("Abril - Junio 2025").
func commissionPeriod(text string) string {
	for _, m := range periodPattern.FindAllStringSubmatch(text, -1) {
		from, ok1 := monthsES[strings.ToLower(m[1])]
		to, ok2 := monthsES[strings.ToLower(m[2])]
		if ok1 && ok2 {
			return fmt.Sprintf("%s - %s %s", from, to, m[3])
		}
	}
	return ""
}

// Validate checks that the invoice carries what the voucher needs.
func Validate(inv *models.ProviderInvoice) error {
	if inv.InvoiceNumber == "" {
		return NewValidationError("invoice_number", "", "invoice number is required")
	}
	if inv.NetAmount <= 0 || math.IsNaN(inv.NetAmount) {
		return NewValidationError("net_amount", inv.NetAmount, "commission amount must be positive")
	}
	if inv.Currency != "USD" {
		return NewValidationError("currency", inv.Currency, "non-domiciled commissions are billed in USD")
	}
	return nil
}
