package models

// Estado is the lifecycle state of an accrual record.
type Estado string

const (
	EstadoRegistrado Estado = "REGISTRADO"
	EstadoEnPrepago  Estado = "EN_PREPAGO"
	EstadoPagado     Estado = "PAGADO"
	EstadoAnulado    Estado = "ANULADO"
)

// TipoDevengado tells domiciled accruals from non-domiciled ones.
type TipoDevengado string

const (
	TipoDomiciliado   TipoDevengado = "DOMICILIADO"
	TipoNoDomiciliado TipoDevengado = "NO_DOMICILIADO"
)

// Rol identifies each half of a non-domiciled group.
type Rol string

const (
	RolPrincipal Rol = "PRINCIPAL"
	RolIGV       Rol = "IGV"
)

// CuentaBancaria is the bank account a payment is drawn from.
type CuentaBancaria struct {
	ID           string `json:"id"`
	Banco        string `json:"banco"`
	NumeroMasked string `json:"numeroMasked"`
	Moneda       string `json:"moneda"` // PEN or USD
}

// Devengado is one accrual ledger entry. Non-domiciled accruals are stored as
// two records (PRINCIPAL and IGV) sharing GroupID; the USD breakdown, IgvSoles
// and Asiento are only set on those.
type Devengado struct {
	ID             int64           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Periodo        string          `json:"periodo" gorm:"size:7;index"` // YYYY-MM
	Proveedor      string          `json:"proveedor"`
	RUC            string          `json:"ruc"`
	DocumentoNro   string          `json:"documentoNro"`
	Moneda         string          `json:"moneda"`
	Monto          float64         `json:"monto"`
	Estado         Estado          `json:"estado" gorm:"size:16;index"`
	FechaRegistro  string          `json:"fechaRegistro"`
	FechaPago      *string         `json:"fechaPago"`
	Observacion    string          `json:"observacion"`
	Entidad        string          `json:"entidad,omitempty"`
	UnidadNegocio  string          `json:"unidadNegocio,omitempty" gorm:"index"`
	TipoPago       string          `json:"tipoPago,omitempty"`
	CuentaBancaria *CuentaBancaria `json:"cuentaBancaria,omitempty" gorm:"serializer:json;type:text"`
	TipoServicio   string          `json:"tipoServicio,omitempty"`
	TipoDocumento  string          `json:"tipoDocumento,omitempty"`
	TipoDevengado  TipoDevengado   `json:"tipoDevengado,omitempty" gorm:"size:16"`

	GroupID            string  `json:"groupId,omitempty" gorm:"index"`
	Rol                Rol     `json:"rol,omitempty" gorm:"size:16"`
	MontoBaseUSD       float64 `json:"montoBaseUSD,omitempty"`
	MontoIgvUSD        float64 `json:"montoIgvUSD,omitempty"`
	TotalObligacionUSD float64 `json:"totalObligacionUSD,omitempty"`
	IgvSoles           float64 `json:"igvSoles,omitempty"`
	Asiento            string  `json:"asiento,omitempty"`
}

// TableName pins the SQL table name.
func (Devengado) TableName() string { return "devengados" }

// IsND reports whether the record belongs to a non-domiciled group. Legacy
// rows may carry a groupId without the type tag.
func (d *Devengado) IsND() bool {
	return d.TipoDevengado == TipoNoDomiciliado || d.GroupID != ""
}

// IsPrincipal reports whether the record is the principal half of a group.
func (d *Devengado) IsPrincipal() bool {
	return d.Rol == RolPrincipal
}

// RolLabel is the role column shown in listings.
func (d *Devengado) RolLabel() string {
	switch d.Rol {
	case RolPrincipal:
		return "Principal"
	case RolIGV:
		return "IGV (-1)"
	}
	return ""
}

// Clone returns a deep copy.
func (d *Devengado) Clone() *Devengado {
	c := *d
	if d.FechaPago != nil {
		f := *d.FechaPago
		c.FechaPago = &f
	}
	if d.CuentaBancaria != nil {
		cb := *d.CuentaBancaria
		c.CuentaBancaria = &cb
	}
	return &c
}

// Entity and business-unit defaults.
const (
	EntidadFCR       = "FCR"
	UnidadDL19990    = "FCR-DL 19990"
	UnidadMacrofondo = "FCR-MACROFONDO"
)
