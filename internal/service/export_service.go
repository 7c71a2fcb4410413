package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
)

const exportSheet = "Tickets"

var exportColumns = []string{
	"Id", "Title", "Status", "Priority", "Category", "Type", "SLA Hours",
	"Created By", "Assigned To", "Created (UTC)", "Updated (UTC)",
}

// ExportService renders ticket listings as spreadsheets.
type ExportService struct {
	tickets *TicketService
	maxRows int
	logger  *zap.Logger
}

// NewExportService constructs the service. maxRows caps the exported rows.
func NewExportService(tickets *TicketService, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ExportService{tickets: tickets, maxRows: maxRows, logger: logger}
}

// ExportTickets pages through the listing and writes an xlsx workbook. It
// reports whether the row cap truncated the export.
func (s *ExportService) ExportTickets(ctx context.Context, filter repository.TicketFilter, sort repository.Sort) ([]byte, bool, error) {
	var rows []domain.Ticket
	truncated := false
	for page := 1; ; page++ {
		res, err := s.tickets.List(ctx, filter, sort, repository.NewPage(page, repository.MaxPageSize))
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, res.Items...)
		if len(rows) >= s.maxRows {
			truncated = res.Total > s.maxRows
			rows = rows[:s.maxRows]
			break
		}
		if len(res.Items) < repository.MaxPageSize {
			break
		}
	}

	data, err := renderWorkbook(rows)
	if err != nil {
		s.logger.Error("ticket export failed", zap.Error(err))
		return nil, false, err
	}
	return data, truncated, nil
}

func renderWorkbook(tickets []domain.Ticket) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, col); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	for r, t := range tickets {
		assigned := ""
		if t.AssignedTo != nil {
			assigned = *t.AssignedTo
		}
		values := []any{
			t.ID, t.Title, string(t.Status), string(t.Priority), string(t.Category), string(t.Type), t.SLAHours,
			t.CreatedBy, assigned, t.CreatedAt.UTC().Format(time.DateTime), t.UpdatedAt.UTC().Format(time.DateTime),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(exportSheet, col, col, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
