package infra

// pdf.go — consignment contract generation using go-pdf/fpdf.
// Produces an A4 contract with:
//   - Store header and contract date
//   - Consignor (client) data
//   - Table of consigned items with listed prices
//   - The age-based discount schedule
//   - 90-day term and 50% split clauses
//   - Signature lines
//
// The output file is saved to storagePath/contrato_{valuacionID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"entrepeques/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateContratoPDF renders the consignment contract for a finalized
// valuation. Only items under modalidad consignación appear in the table.
// Returns the absolute path to the generated file.
func GenerateContratoPDF(v *model.Valuacion, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("contrato_%s.pdf", v.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 covers á é í ó ú ñ

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 40

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, tr("Contrato de Consignación"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, v.FechaValuacion.Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Consignor ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Datos del consignante"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if v.Cliente != nil {
		pdf.CellFormat(contentW, 5, tr("Nombre: "+v.Cliente.Nombre), "", 1, "L", false, 0, "")
		pdf.CellFormat(contentW, 5, tr("Teléfono: "+v.Cliente.Telefono), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, tr("Folio de valuación: "+v.ID.String()), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Item table ───────────────────────────────────────────────────────────
	col1 := contentW * 0.12 // qty
	col2 := contentW * 0.58 // description
	col3 := contentW * 0.30 // listed price

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Cant.", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col2, 6, tr("Artículo"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, tr("Precio de venta"), "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range v.Items {
		if item.Modalidad != model.ModalidadConsignacion {
			continue
		}
		descr := item.EstadoArticulo
		if item.Notas != nil && *item.Notas != "" {
			descr = *item.Notas
		}
		if len([]rune(descr)) > 48 {
			descr = string([]rune(descr)[:47]) + "…"
		}
		pdf.CellFormat(col1, 6, fmt.Sprintf("%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col2, 6, tr(descr), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+item.PrecioVentaEfectivo().StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Discount schedule ────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Tabla de descuentos por antigüedad"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, fila := range []string{
		"Semanas 0 a 8: precio de lista (100%)",
		"Semanas 8 a 16: 10% de descuento (90%)",
		"Semanas 16 a 24: 20% de descuento (80%)",
		"Después de la semana 24: se mantiene el 80%",
	} {
		pdf.CellFormat(contentW, 5, tr(fila), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Terms ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Condiciones"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	terms := []string{
		"1. La vigencia del presente contrato es de 90 días naturales a partir de la fecha de listado.",
		"2. Al venderse un artículo, el consignante recibe el 50% del precio de venta real.",
		"3. Vencido el plazo, el consignante cuenta con 30 días para recoger los artículos no vendidos.",
		"4. Los artículos no reclamados dentro del periodo de gracia podrán considerarse abandonados.",
	}
	for _, t := range terms {
		pdf.MultiCell(contentW, 5, tr(t), "", "L", false)
	}
	pdf.Ln(10)

	// ── Signatures ───────────────────────────────────────────────────────────
	half := contentW / 2
	y := pdf.GetY()
	pdf.Line(20, y, 20+half-10, y)
	pdf.Line(20+half+10, y, 20+contentW, y)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(half-10, 5, tr("Consignante"), "", 0, "C", false, 0, "")
	pdf.CellFormat(20, 5, "", "", 0, "C", false, 0, "")
	pdf.CellFormat(half-10, 5, tr("Por "+storeName), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
