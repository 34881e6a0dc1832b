package store

import "igvtools/pkg/models"

// SeedSeq is the sequence value that follows the seed records.
const SeedSeq int64 = 1127

func paid(id int64, periodo, doc string, monto float64, registro, pago, obs string) *models.Devengado {
	fp := pago
	return &models.Devengado{
		ID:            id,
		Periodo:       periodo,
		Proveedor:     "SUNAT/BANCO DE LA NACION",
		RUC:           "20131312955",
		DocumentoNro:  doc,
		Moneda:        "PEN",
		Monto:         monto,
		Estado:        models.EstadoPagado,
		FechaRegistro: registro,
		FechaPago:     &fp,
		Observacion:   obs,
		Entidad:       models.EntidadFCR,
		UnidadNegocio: models.UnidadDL19990,
		TipoDevengado: models.TipoDomiciliado,
	}
}

func seedGroupMember(id int64, doc string, monto float64, rol models.Rol, obs string) *models.Devengado {
	return &models.Devengado{
		ID:                 id,
		Periodo:            "2025-12",
		Proveedor:          "BBVA Asset Management S.A.",
		RUC:                "00000000000",
		DocumentoNro:       doc,
		Moneda:             "USD",
		Monto:              monto,
		Estado:             models.EstadoRegistrado,
		FechaRegistro:      "2025-12-19",
		Observacion:        obs,
		Entidad:            models.EntidadFCR,
		UnidadNegocio:      models.UnidadMacrofondo,
		TipoDevengado:      models.TipoNoDomiciliado,
		GroupID:            "GE/0002499",
		Rol:                rol,
		MontoBaseUSD:       100123.78,
		MontoIgvUSD:        18022.28,
		TotalObligacionUSD: 118146.06,
		IgvSoles:           63060.00,
		Asiento:            "202512-APF1000006",
	}
}

// SeedDevengados returns the demonstration history: the paid domiciled
// accruals of January to August 2025 and one registered non-domiciled group.
func SeedDevengados() []*models.Devengado {
	return []*models.Devengado{
		paid(1113, "2025-01", "IGVFCRENE2025", 356210.45, "2025-02-07", "2025-02-10", "LIQUIDACIÓN IGV ENERO 2025"),
		paid(1114, "2025-02", "IGVFCRFEB2025", 348920.30, "2025-03-07", "2025-03-11", "LIQUIDACIÓN IGV FEBRERO 2025"),
		paid(1115, "2025-03", "IGVFCRMAR2025", 372450.80, "2025-04-08", "2025-04-11", "LIQUIDACIÓN IGV MARZO 2025"),
		paid(1116, "2025-04", "IGVFCRABR2025", 365780.15, "2025-05-07", "2025-05-09", "LIQUIDACIÓN IGV ABRIL 2025"),
		paid(1117, "2025-05", "IGVFCRMAY2025", 389120.60, "2025-06-06", "2025-06-10", "LIQUIDACIÓN IGV MAYO 2025"),
		paid(1118, "2025-06", "IGVFCRJUN2025", 378540.25, "2025-07-07", "2025-07-10", "LIQUIDACIÓN IGV JUNIO 2025"),
		paid(1119, "2025-07", "IGVFCRJUL2025", 385905.65, "2025-08-08", "2025-08-11", "LIQUIDACIÓN IGV JULIO 2025"),
		paid(1120, "2025-08", "IGVFCRAGO2025", 401871.00, "2025-09-08", "2025-09-12", "LIQUIDACIÓN IGV AGOSTO 2025"),
		seedGroupMember(1125, "GE/0002499", 118146.06, models.RolPrincipal, "IGV NO DOMICILIADO - PRINCIPAL"),
		seedGroupMember(1126, "GE/0002499-1", 18022.28, models.RolIGV, "IGV NO DOMICILIADO - IGV"),
	}
}
