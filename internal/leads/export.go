package leads

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/venuedesk/venuedesk/internal/money"
)

const (
	exportSheet = "Leads"
	exportLimit = 5000
)

var exportHeaders = []string{
	"Référence", "Statut", "Version", "Créé le", "Prénom", "Nom", "Email", "Téléphone", "Société",
	"Date événement", "Service", "Adultes", "Enfants", "Total HT", "TVA", "Total TTC", "Acompte",
}

// ExportXLSX writes the leads matching req as a spreadsheet, newest first.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer, req ListRequest) (int, error) {
	req.Limit, req.Offset = exportLimit, 0
	leads, _, err := s.List(ctx, req)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return 0, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, bold); err != nil {
		return 0, err
	}

	for i, lead := range leads {
		ev := lead.Selection.Event
		values := []any{
			lead.Reference, string(lead.Status), lead.Version, lead.CreatedAt.Format("2006-01-02 15:04"),
			lead.Contact.FirstName, lead.Contact.LastName, lead.Contact.Email, lead.Contact.Phone, lead.Contact.Company,
			ev.Date.String(), string(ev.Service), ev.Adults, ev.Children,
			money.Round(lead.Totals.TotalHT), money.Round(lead.Totals.TotalTVA),
			money.Round(lead.Totals.TotalTTC), money.Round(lead.Totals.Deposit),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return 0, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return 0, err
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	return len(leads), nil
}
