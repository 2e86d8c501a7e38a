package render

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Armin-kho/gold-live-rates/internal/rates"
	"github.com/Armin-kho/gold-live-rates/internal/utils"
)

const invoiceSheet = "Invoice"

// InvoiceXLSX writes the priced jewellery table as a workbook: one row per item plus a totals row.
func InvoiceXLSX(w io.Writer, inv rates.Invoice, shopName string, at time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return err
	}

	header := []any{"#", "Weight (g)", "Carat", "Making %", "Rate / g"}
	for _, h := range rates.HallmarkOptions {
		header = append(header, fmt.Sprintf("Total (hallmark %d)", h))
	}
	header = append(header, "GST", "Making charges")

	title := shopName
	if title == "" {
		title = "Jewellery pricing"
	}
	if err := f.SetCellValue(invoiceSheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellValue(invoiceSheet, "A2", utils.DateTime(at)); err != nil {
		return err
	}
	if err := f.SetSheetRow(invoiceSheet, "A4", &header); err != nil {
		return err
	}

	row := 5
	for i, q := range inv.Rows {
		vals := []any{i + 1, q.Weight, string(q.Tier), q.MakingPercent, q.PerGram}
		for _, h := range rates.HallmarkOptions {
			vals = append(vals, q.Totals[h])
		}
		vals = append(vals, q.GST, q.MakingCharges)
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(invoiceSheet, cell, &vals); err != nil {
			return err
		}
		row++
	}

	totals := []any{"Total", inv.TotalWeight, "", "", ""}
	for _, h := range rates.HallmarkOptions {
		totals = append(totals, inv.Totals[h])
	}
	totals = append(totals, inv.TotalGST, inv.TotalMakingCharges)
	totalCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(invoiceSheet, totalCell, &totals); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(invoiceSheet, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(invoiceSheet, "A4", lastCol+"4", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(invoiceSheet, totalCell, fmt.Sprintf("%s%d", lastCol, row), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(invoiceSheet, "A", lastCol, 16); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
