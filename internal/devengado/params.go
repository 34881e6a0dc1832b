package devengado

import "igvtools/pkg/models"

// Params are the fixed values used when registering an accrual of a type.
type Params struct {
	ProveedorCodigo   string
	Proveedor         string
	RUC               string
	Entidad           string
	TipoDocumento     string
	CentroCosto       string
	UnidadNegocio     string
	TipoServicio      string
	TipoPago          string
	Moneda            string
	CuentaContable    string
	CuentaDescripcion string
}

// ParamsDomiciliado is used for the entity's own monthly IGV, paid to SUNAT.
var ParamsDomiciliado = Params{
	ProveedorCodigo:   "8101",
	Proveedor:         "SUNAT/BANCO DE LA NACION",
	RUC:               "20131312955",
	Entidad:           models.EntidadFCR,
	TipoDocumento:     "Impuestos Propios",
	CentroCosto:       "78 – CONTABILIDAD",
	UnidadNegocio:     models.UnidadDL19990,
	TipoServicio:      "No afecto a ninguna",
	TipoPago:          "Débito en cuenta",
	Moneda:            "PEN",
	CuentaContable:    "4011101",
	CuentaDescripcion: "IGV - Cuenta Propia",
}

// ParamsNoDomiciliado is used for IGV on commissions of foreign providers.
var ParamsNoDomiciliado = Params{
	Entidad:           models.EntidadFCR,
	TipoDocumento:     "No Domiciliado",
	CentroCosto:       "78 – CONTABILIDAD",
	UnidadNegocio:     models.UnidadMacrofondo,
	TipoServicio:      "IGV No Domiciliado",
	TipoPago:          "Débito en cuenta",
	Moneda:            "USD",
	CuentaContable:    "4699108",
	CuentaDescripcion: "Comisiones de Portafolio",
}

// ParamsFor returns the parameters of an accrual type.
func ParamsFor(tipo models.TipoDevengado) Params {
	if tipo == models.TipoNoDomiciliado {
		return ParamsNoDomiciliado
	}
	return ParamsDomiciliado
}
