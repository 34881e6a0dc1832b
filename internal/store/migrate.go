package store

import (
	"strings"

	"igvtools/internal/period"
	"igvtools/pkg/models"
)

// Migrate normalizes legacy records in place and reports whether anything
// changed. Periods saved as MM-YYYY become YYYY-MM; missing entity, business
// unit and type tags are filled from the record kind. Non-domiciled records
// always belong to FCR.
func Migrate(recs []*models.Devengado) bool {
	changed := false
	for _, r := range recs {
		if p := period.ToStorage(r.Periodo); p != r.Periodo {
			r.Periodo = p
			changed = true
		}
		if migrateFields(r) {
			changed = true
		}
	}
	return changed
}

func migrateFields(r *models.Devengado) bool {
	nd := r.GroupID != "" || r.TipoDevengado == models.TipoNoDomiciliado
	changed := false
	set := func(dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = true
		}
	}

	if nd {
		if !strings.EqualFold(r.Entidad, models.EntidadFCR) {
			set(&r.Entidad, models.EntidadFCR)
		}
		if r.UnidadNegocio == "" {
			set(&r.UnidadNegocio, models.UnidadMacrofondo)
		}
		if r.TipoDevengado == "" {
			r.TipoDevengado = models.TipoNoDomiciliado
			changed = true
		}
		return changed
	}

	if r.Entidad == "" {
		set(&r.Entidad, models.EntidadFCR)
	}
	if r.UnidadNegocio == "" {
		set(&r.UnidadNegocio, models.UnidadDL19990)
	}
	if r.TipoDevengado == "" {
		r.TipoDevengado = models.TipoDomiciliado
		changed = true
	}
	return changed
}
