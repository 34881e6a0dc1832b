// Package accounts resolves the ledger accounts used when booking IGV
// accruals. Commission accounts depend on the portfolio and the providers
// involved; the IGV accounts are fixed.
package accounts

import (
	"strings"
)

// PendingCode marks an account that still has to be configured.
const PendingCode = "0000000"

// Entry is an account code with its description.
type Entry struct {
	Cuenta      string `json:"cuenta"`
	Descripcion string `json:"descripcion"`
}

// Pair holds the accounts used on the credit (haber) and debit (debe) side.
type Pair struct {
	Haber Entry
	Debe  Entry
}

// Fixed accounts.
var (
	IGVServicioND     = Entry{Cuenta: "4011201", Descripcion: "IGV - Servicios prestados por No Domiciliados"}
	IGVNoDomiciliado  = Entry{Cuenta: "6411101", Descripcion: "IGV no domiciliados"}
	IGVCuentaPropia   = Entry{Cuenta: "4011101", Descripcion: "IGV - Cuenta Propia"}
	ComisionesDefault = Entry{Cuenta: "4699108", Descripcion: "Comisiones de Portafolio"}
)

func same(e Entry) Pair { return Pair{Haber: e, Debe: e} }

// commissionTable maps resolution keys to commission accounts. MILA entries
// have no code assigned yet.
var commissionTable = map[string]Pair{
	"FLAR_CONJUNTO":   same(Entry{Cuenta: "4699103", Descripcion: "Comisiones portafolio Fondo Latinoamericano"}),
	"FLAR_ALLSPRING":  same(Entry{Cuenta: "4699107", Descripcion: "Comisiones portafolio analytic Investors"}),
	"FLAR_WELLINGTON": same(Entry{Cuenta: "4699103", Descripcion: "Comisiones portafolio Fondo Latinoamericano"}),
	"MILA_BBVA":       same(Entry{Cuenta: PendingCode, Descripcion: "Comisiones portafolio BBVA"}),
	"MILA_BCP":        same(Entry{Cuenta: PendingCode, Descripcion: "Comisiones portafolio BCP"}),
	"MILA_COMPASS":    same(Entry{Cuenta: PendingCode, Descripcion: "Comisiones portafolio Compass"}),
}

// Resolution is the outcome of a commission account lookup. Pending is set
// when no usable code exists; Haber and Debe then hold a placeholder entry
// that must not be booked without operator review.
type Resolution struct {
	Key     string
	Haber   Entry
	Debe    Entry
	Found   bool
	Pending bool
}

// Key builds the lookup key for a portfolio and its selected providers.
// More than one provider always maps to the portfolio's joint account.
func Key(portfolio string, providers []string) string {
	if portfolio == "" {
		return ""
	}
	p := strings.ToUpper(portfolio)
	if len(providers) > 1 {
		return p + "_CONJUNTO"
	}
	first := ""
	if len(providers) == 1 {
		first = providers[0]
	}
	return p + "_" + strings.ToUpper(first)
}

// Resolve looks up the commission accounts. A miss never fails: it returns
// the placeholder pair with Pending set.
func Resolve(portfolio string, providers []string) Resolution {
	key := Key(portfolio, providers)
	if pair, ok := commissionTable[key]; ok {
		return Resolution{
			Key:     key,
			Haber:   pair.Haber,
			Debe:    pair.Debe,
			Found:   true,
			Pending: pair.Haber.Cuenta == PendingCode || pair.Debe.Cuenta == PendingCode,
		}
	}
	label := portfolio
	if label == "" {
		label = "N/D"
	}
	placeholder := Entry{Cuenta: PendingCode, Descripcion: "Comisiones portafolio " + label}
	return Resolution{Key: key, Haber: placeholder, Debe: placeholder, Pending: true}
}

// Keys returns the configured keys, for listings.
func Keys() []string {
	keys := make([]string, 0, len(commissionTable))
	for k := range commissionTable {
		keys = append(keys, k)
	}
	return keys
}
