package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"igvtools/internal/devengado"
	"igvtools/internal/logger"
	"igvtools/internal/money"
	"igvtools/internal/pagofacil"
	"igvtools/internal/period"
	"igvtools/pkg/models"
)

var devengadoCmd = &cobra.Command{
	Use:     "devengado",
	Aliases: []string{"dev"},
	Short:   "Manage the accrual ledger",
	Long: `List, register, edit and annul accrual records (devengados).

Domiciled accruals hold the monthly IGV liquidation. Non-domiciled accruals
are stored as a group of two records: the PRINCIPAL with the commission base
in dollars and the IGV record with the tax withheld in soles.`,
}

var devengadoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accrual records, newest first",
	Example: `  igvtools devengado list --periodo 09-2025
  igvtools devengado list --tipo NO_DOMICILIADO --estado REGISTRADO --json`,
	Args: cobra.NoArgs,
	RunE: runDevengadoList,
}

var devengadoShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a record with its group and payments",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevengadoShow,
}

var devengadoRegistrarCmd = &cobra.Command{
	Use:   "registrar",
	Short: "Register a domiciled or non-domiciled accrual",
	Long: `Register an accrual from a manual form.

The form can start empty (type defaults, dates on the last day of the
period), from the previous month (--anterior) or from an existing record
(--copiar-de). Flags given explicitly override the prefilled values.`,
	Example: `  # Domiciled IGV accrual for September
  igvtools devengado registrar --periodo 09-2025 --monto 63060

  # Start from the previous month's accrual
  igvtools devengado registrar --periodo 10-2025 --anterior

  # Non-domiciled group typed in by hand
  igvtools devengado registrar --tipo NO_DOMICILIADO --periodo 09-2025 \
    --base 100123.78 --tc 3.499 --documento GE/0002499 --proveedor "BBVA ASSET MANAGEMENT"`,
	Args: cobra.NoArgs,
	RunE: runDevengadoRegistrar,
}

var devengadoEditarCmd = &cobra.Command{
	Use:   "editar <id>",
	Short: "Edit a record; on a non-domiciled record the whole group is edited",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevengadoEditar,
}

var devengadoAnularCmd = &cobra.Command{
	Use:   "anular <id>",
	Short: "Annul a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevengadoAnular,
}

var devengadoAnteriorCmd = &cobra.Command{
	Use:   "anterior",
	Short: "Show the accrual of the month before --periodo",
	Args:  cobra.NoArgs,
	RunE:  runDevengadoAnterior,
}

var devengadoVerificarCmd = &cobra.Command{
	Use:   "verificar",
	Short: "Check that every non-domiciled group holds one principal and one IGV record",
	Args:  cobra.NoArgs,
	RunE:  runDevengadoVerificar,
}

func init() {
	rootCmd.AddCommand(devengadoCmd)
	devengadoCmd.AddCommand(devengadoListCmd, devengadoShowCmd, devengadoRegistrarCmd,
		devengadoEditarCmd, devengadoAnularCmd, devengadoAnteriorCmd, devengadoVerificarCmd)

	f := devengadoListCmd.Flags()
	f.String("periodo", "", "Period MM-YYYY")
	f.String("tipo", "", "DOMICILIADO or NO_DOMICILIADO")
	f.String("estado", "", "REGISTRADO, EN_PREPAGO, PAGADO or ANULADO")
	f.String("unidad", "", "Business unit")
	f.String("search", "", "Text in provider, RUC or document number")
	f.Bool("json", false, "Print the records as JSON")

	devengadoShowCmd.Flags().Bool("json", false, "Print the record as JSON")

	f = devengadoRegistrarCmd.Flags()
	f.String("tipo", string(models.TipoDomiciliado), "DOMICILIADO or NO_DOMICILIADO")
	f.String("periodo", "", "Period MM-YYYY (default: month after the latest accrual)")
	f.Bool("anterior", false, "Prefill from the previous month's accrual")
	f.Int64("copiar-de", 0, "Prefill from an existing record id")
	f.Float64("base", 0, "Non-domiciled commission base in USD")
	f.Float64("igv", 0, "Non-domiciled IGV in USD (default: 18% of the base)")
	f.Float64("tc", 0, "Non-domiciled exchange rate")
	f.String("portafolio", "", "Non-domiciled portfolio, selects the commission account")
	f.String("proveedores", "", "Non-domiciled providers, comma-separated")
	addFormFlags(f)

	f = devengadoEditarCmd.Flags()
	f.String("periodo", "", "Period MM-YYYY")
	f.String("ruc", "", "RUC")
	f.String("tipo-pago", "", "Payment type")
	f.String("tipo-servicio", "", "Service type")
	f.String("tipo-documento", "", "Document type")
	f.Float64("base", 0, "Non-domiciled base in USD")
	f.Float64("igv", 0, "Non-domiciled IGV in USD")
	f.Float64("igv-soles", 0, "Non-domiciled IGV in soles")
	addFormFlags(f)

	devengadoAnteriorCmd.Flags().String("periodo", "", "Period MM-YYYY")
	devengadoAnteriorCmd.Flags().String("tipo", string(models.TipoDomiciliado), "DOMICILIADO or NO_DOMICILIADO")
}

// addFormFlags registers the fields shared by registration and edit.
func addFormFlags(f *pflag.FlagSet) {
	f.Float64("monto", 0, "Domiciled amount in soles")
	f.String("documento", "", "Document number")
	f.String("proveedor", "", "Provider")
	f.String("observacion", "", "Journal description (glosa)")
	f.String("unidad", "", "Business unit")
	f.String("fecha", "", "Date YYYY-MM-DD for every form date")
}

func parseTipo(v string) (models.TipoDevengado, error) {
	switch t := models.TipoDevengado(strings.ToUpper(strings.TrimSpace(v))); t {
	case "":
		return "", nil
	case models.TipoDomiciliado, models.TipoNoDomiciliado:
		return t, nil
	}
	return "", fmt.Errorf("unknown accrual type %q", v)
}

func parseEstado(v string) (models.Estado, error) {
	switch e := models.Estado(strings.ToUpper(strings.TrimSpace(v))); e {
	case "":
		return "", nil
	case models.EstadoRegistrado, models.EstadoEnPrepago, models.EstadoPagado, models.EstadoAnulado:
		return e, nil
	}
	return "", fmt.Errorf("unknown state %q", v)
}

func runDevengadoList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")

	periodo, _ := cmd.Flags().GetString("periodo")
	tipoFlag, _ := cmd.Flags().GetString("tipo")
	estadoFlag, _ := cmd.Flags().GetString("estado")
	unidad, _ := cmd.Flags().GetString("unidad")
	search, _ := cmd.Flags().GetString("search")
	asJSON, _ := cmd.Flags().GetBool("json")

	tipo, err := parseTipo(tipoFlag)
	if err != nil {
		return err
	}
	estado, err := parseEstado(estadoFlag)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	recs, err := a.ledger.List(ctx, devengado.Filter{
		Periodo:       periodo,
		Tipo:          tipo,
		Estado:        estado,
		UnidadNegocio: unidad,
		Search:        search,
	})
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(recs, "", log)
	}
	printDevengados(recs)
	return nil
}

func printDevengados(recs []*models.Devengado) {
	if len(recs) == 0 {
		fmt.Println("Sin registros")
		return
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tPERIODO\tPROVEEDOR\tDOCUMENTO\tROL\tMONTO\tESTADO\tPAGO")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			r.ID, period.ToUI(r.Periodo), r.Proveedor, r.DocumentoNro, r.RolLabel(),
			r.Moneda, money.Format(r.Monto), r.Estado, deref(r.FechaPago))
	}
	_ = tw.Flush()
}

func runDevengadoShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")
	asJSON, _ := cmd.Flags().GetBool("json")
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	rec, err := a.ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	members := []*models.Devengado{rec}
	if rec.GroupID != "" {
		if members, err = a.ledger.Group(ctx, rec.GroupID); err != nil {
			return err
		}
	}
	pagos, err := a.treasury.ForDevengado(ctx, id)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(struct {
			Registros []*models.Devengado `json:"registros"`
			Pagos     []*models.Pago      `json:"pagos"`
		}{members, pagos}, "", log)
	}

	printDevengados(members)
	if rec.GroupID != "" {
		p := members[0]
		fmt.Printf("\nGrupo %s: base US$ %s, IGV US$ %s, IGV S/ %s, asiento %s\n",
			rec.GroupID, money.Format(p.MontoBaseUSD), money.Format(p.MontoIgvUSD),
			money.Format(p.IgvSoles), p.Asiento)
	}
	if len(pagos) > 0 {
		fmt.Println()
		printPagos(pagos)
	}
	return nil
}

func runDevengadoRegistrar(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")
	flags := cmd.Flags()

	tipoFlag, _ := flags.GetString("tipo")
	periodo, _ := flags.GetString("periodo")
	anterior, _ := flags.GetBool("anterior")
	copiarDe, _ := flags.GetInt64("copiar-de")

	tipo, err := parseTipo(tipoFlag)
	if err != nil {
		return err
	}
	if tipo == "" {
		tipo = models.TipoDomiciliado
	}
	if periodo != "" && !period.IsUI(periodo) {
		return fmt.Errorf("invalid period %q, expected MM-YYYY", periodo)
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	if periodo == "" {
		if periodo, err = a.ledger.SuggestedPeriod(ctx, tipo); err != nil {
			return err
		}
	}

	var d devengado.Draft
	switch {
	case copiarDe > 0:
		if d, err = a.ledger.DraftFromCopy(ctx, copiarDe, periodo); err != nil {
			return err
		}
	case anterior:
		var found bool
		if d, found, err = a.ledger.DraftFromPrevious(ctx, periodo, tipo); err != nil {
			return err
		}
		if !found {
			fmt.Println("No hay devengado del mes anterior; se usan los valores por defecto")
		}
	default:
		d = devengado.NewDraft(tipo, periodo)
		if tipo == models.TipoDomiciliado {
			d.Glosa = devengado.LiquidacionGlosa(d.Periodo)
		}
	}

	applyDraftFlags(cmd, &d)
	if err := d.Validate(); err != nil {
		return userError(err)
	}

	recs, err := a.ledger.Save(ctx, d, 0)
	if err != nil {
		return userError(err)
	}
	printDevengados(recs)
	return nil
}

// applyDraftFlags overrides draft fields with the flags given explicitly.
func applyDraftFlags(cmd *cobra.Command, d *devengado.Draft) {
	flags := cmd.Flags()
	if s, _ := flags.GetString("documento"); flags.Changed("documento") {
		d.DocumentoNumero = s
	}
	if s, _ := flags.GetString("proveedor"); flags.Changed("proveedor") {
		d.Proveedor = s
	}
	if s, _ := flags.GetString("observacion"); flags.Changed("observacion") {
		d.Glosa = s
	}
	if s, _ := flags.GetString("unidad"); flags.Changed("unidad") {
		d.UnidadNegocio = s
	}
	if s, _ := flags.GetString("fecha"); flags.Changed("fecha") {
		d.SetDates(s)
	}

	if !d.IsND() {
		if x, _ := flags.GetFloat64("monto"); flags.Changed("monto") {
			d.MontoAfecto = x
			d.NoAfecto, d.IGV, d.OtrosImpuestos = 0, 0, 0
			d.RecomputeTotal()
		}
		return
	}

	if s, _ := flags.GetString("portafolio"); flags.Changed("portafolio") {
		d.Portafolio = s
	}
	if s, _ := flags.GetString("proveedores"); flags.Changed("proveedores") {
		d.Proveedores = splitList(s)
	}
	if !flags.Changed("base") && !flags.Changed("igv") && !flags.Changed("tc") {
		return
	}
	v := pagofacil.NewVoucher()
	v.TCSunatVenta = d.TipoCambio
	if x, _ := flags.GetFloat64("tc"); flags.Changed("tc") {
		v.TCSunatVenta = x
	}
	base := d.MontoAfecto
	if x, _ := flags.GetFloat64("base"); flags.Changed("base") {
		base = x
	}
	v.SetBaseUSD(base)
	if x, _ := flags.GetFloat64("igv"); flags.Changed("igv") {
		v.SetIGVUSD(x)
	}
	d.TipoCambio = v.TCSunatVenta
	d.MontoAfecto = v.BaseUSD
	d.IGV = v.IGVUSD
	d.IgvSoles = float64(v.TotalIGVSoles)
	d.TotalObligacion = d.IgvSoles
}

func runDevengadoEditar(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	rec, err := a.ledger.Get(ctx, id)
	if err != nil {
		return err
	}

	var recs []*models.Devengado
	if rec.GroupID != "" {
		recs, err = a.ledger.UpdateGroup(ctx, rec.GroupID, groupUpdateFromFlags(cmd))
	} else {
		var updated *models.Devengado
		updated, err = a.ledger.Update(ctx, id, patchFromFlags(cmd))
		recs = []*models.Devengado{updated}
	}
	if err != nil {
		return userError(err)
	}
	printDevengados(recs)
	return nil
}

func changedString(f *pflag.FlagSet, name string) *string {
	if !f.Changed(name) {
		return nil
	}
	s, _ := f.GetString(name)
	return &s
}

func changedFloat(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	x, _ := f.GetFloat64(name)
	return &x
}

func patchFromFlags(cmd *cobra.Command) devengado.Patch {
	f := cmd.Flags()
	return devengado.Patch{
		Periodo:       changedString(f, "periodo"),
		Proveedor:     changedString(f, "proveedor"),
		RUC:           changedString(f, "ruc"),
		DocumentoNro:  changedString(f, "documento"),
		Monto:         changedFloat(f, "monto"),
		Observacion:   changedString(f, "observacion"),
		UnidadNegocio: changedString(f, "unidad"),
		TipoPago:      changedString(f, "tipo-pago"),
		TipoServicio:  changedString(f, "tipo-servicio"),
		TipoDocumento: changedString(f, "tipo-documento"),
	}
}

func groupUpdateFromFlags(cmd *cobra.Command) devengado.GroupUpdate {
	f := cmd.Flags()
	return devengado.GroupUpdate{
		Periodo:         changedString(f, "periodo"),
		Proveedor:       changedString(f, "proveedor"),
		RUC:             changedString(f, "ruc"),
		Observacion:     changedString(f, "observacion"),
		TipoDocumento:   changedString(f, "tipo-documento"),
		TipoServicio:    changedString(f, "tipo-servicio"),
		TipoPago:        changedString(f, "tipo-pago"),
		UnidadNegocio:   changedString(f, "unidad"),
		DocumentoNumero: changedString(f, "documento"),
		MontoBaseUSD:    changedFloat(f, "base"),
		MontoIgvUSD:     changedFloat(f, "igv"),
		IgvSoles:        changedFloat(f, "igv-soles"),
	}
}

func runDevengadoAnular(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	rec, pagos, err := a.treasury.AnnulDevengado(ctx, id)
	if err != nil {
		return treasuryError(err)
	}
	fmt.Printf("Devengado #%d anulado\n", rec.ID)
	for _, p := range pagos {
		fmt.Printf("Pre-pago %s anulado\n", p.ID)
	}
	return nil
}

func runDevengadoAnterior(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")
	periodo, _ := cmd.Flags().GetString("periodo")
	tipoFlag, _ := cmd.Flags().GetString("tipo")
	tipo, err := parseTipo(tipoFlag)
	if err != nil {
		return err
	}
	if tipo == "" {
		tipo = models.TipoDomiciliado
	}
	if periodo == "" {
		periodo = period.ToUI(period.ISODate(time.Now())[:7])
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	prev, err := a.ledger.Previous(ctx, periodo, tipo)
	if err != nil {
		return err
	}
	if prev == nil {
		fmt.Printf("Sin devengado %s para %s\n", tipo, period.ToUI(period.Previous(periodo)))
		return nil
	}
	printDevengados([]*models.Devengado{prev})
	return nil
}

func runDevengadoVerificar(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("devengado")

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(log)

	issues, err := a.ledger.CheckGroups(ctx)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Println("Todos los grupos ND están completos")
		return nil
	}
	for _, is := range issues {
		fmt.Println(is.String())
	}
	return fmt.Errorf("%d grupos ND inconsistentes", len(issues))
}
