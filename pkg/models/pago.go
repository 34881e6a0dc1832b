package models

// EstadoPago is the lifecycle state of a treasury payment.
type EstadoPago string

const (
	PagoGenerado EstadoPago = "GENERADO"
	PagoPagado   EstadoPago = "PAGADO"
	PagoAnulado  EstadoPago = "ANULADO"
)

// Evidence slots a payment can carry.
const (
	SlotComprobanteGiro = "comprobanteGiro"
	SlotConstanciaSunat = "constanciaSunat"
	SlotCopiaCheque     = "copiaCheque"
	SlotVoucherBancario = "voucherBancario"
)

// Slots lists the evidence slots in display order.
var Slots = []string{SlotComprobanteGiro, SlotConstanciaSunat, SlotCopiaCheque, SlotVoucherBancario}

// Documento is a file attached as payment evidence.
type Documento struct {
	Nombre    string `json:"nombre"`
	Archivo   string `json:"archivo"`
	Adjuntado string `json:"adjuntado"`
}

// Sustento groups the evidence documents of a payment.
type Sustento struct {
	ComprobanteGiro *Documento `json:"comprobanteGiro,omitempty"`
	ConstanciaSunat *Documento `json:"constanciaSunat,omitempty"`
	CopiaCheque     *Documento `json:"copiaCheque,omitempty"`
	VoucherBancario *Documento `json:"voucherBancario,omitempty"`
}

func (s *Sustento) slot(name string) **Documento {
	switch name {
	case SlotComprobanteGiro:
		return &s.ComprobanteGiro
	case SlotConstanciaSunat:
		return &s.ConstanciaSunat
	case SlotCopiaCheque:
		return &s.CopiaCheque
	case SlotVoucherBancario:
		return &s.VoucherBancario
	}
	return nil
}

// Set stores doc in the named slot. It returns false for an unknown slot.
func (s *Sustento) Set(name string, doc *Documento) bool {
	p := s.slot(name)
	if p == nil {
		return false
	}
	*p = doc
	return true
}

// Get returns the document in the named slot, or nil.
func (s *Sustento) Get(name string) *Documento {
	p := s.slot(name)
	if p == nil {
		return nil
	}
	return *p
}

// Pago is a treasury payment generated from an accrual.
type Pago struct {
	ID              string          `json:"id" gorm:"primaryKey;size:16"`
	DevengadoID     int64           `json:"devengadoId,string" gorm:"index"`
	Periodo         string          `json:"periodo" gorm:"size:7;index"`
	Entidad         string          `json:"entidad"`
	UnidadNegocio   string          `json:"unidadNegocio"`
	Proveedor       string          `json:"proveedor"`
	Monto           float64         `json:"monto"`
	Moneda          string          `json:"moneda,omitempty"`
	TipoPago        string          `json:"tipoPago"`
	CuentaBancaria  *CuentaBancaria `json:"cuentaBancaria,omitempty" gorm:"serializer:json;type:text"`
	FechaGeneracion string          `json:"fechaGeneracion"`
	FechaPago       *string         `json:"fechaPago,omitempty"`
	Estado          EstadoPago      `json:"estado" gorm:"size:16;index"`
	Sustento        *Sustento       `json:"sustento,omitempty" gorm:"serializer:json;type:text"`
	Observacion     string          `json:"observacion,omitempty"`
}

// TableName pins the SQL table name.
func (Pago) TableName() string { return "pagos" }

// Clone returns a deep copy.
func (p *Pago) Clone() *Pago {
	c := *p
	if p.FechaPago != nil {
		f := *p.FechaPago
		c.FechaPago = &f
	}
	if p.CuentaBancaria != nil {
		cb := *p.CuentaBancaria
		c.CuentaBancaria = &cb
	}
	if p.Sustento != nil {
		s := *p.Sustento
		c.Sustento = &s
	}
	return &c
}
