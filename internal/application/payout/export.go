package payout

import (
	"context"
	"fmt"
	"io"

	"github.com/payout/backend/internal/infrastructure/telemetry"
	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the worksheet holding exported dues
const ExportSheetName = "Dues"

var exportHeader = []interface{}{
	"Investor", "Email", "Investment", "Frequency", "Principal", "Expected Return",
	"Actual Return", "Completed Payouts", "Total Payouts", "Payout Amount",
	"Next Payout Date", "Status", "Days Overdue", "Progress %",
}

// ExportDues writes every due matching q as an XLSX workbook to w. Paging in
// q is ignored; rows are fetched in pages of the configured maximum size.
func (s *DueService) ExportDues(ctx context.Context, q ListDuesQuery, w io.Writer) (rows int, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", "export")
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	now := s.clock()
	q.Page, q.Limit = 1, s.cfg.MaxPageSize
	filter, err := s.buildFilter(q, now)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(ExportSheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to open sheet writer: %w", err)
	}
	if err := sw.SetRow("A1", exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for {
		dues, err := s.dueRepo.FindAll(ctx, filter)
		if err != nil {
			return rows, fmt.Errorf("failed to list dues: %w", err)
		}
		views, err := s.classifyAll(ctx, dues, now)
		if err != nil {
			return rows, err
		}
		for i := range views {
			cell, err := excelize.CoordinatesToCellName(1, rows+2)
			if err != nil {
				return rows, err
			}
			if err := sw.SetRow(cell, exportRow(&views[i])); err != nil {
				return rows, fmt.Errorf("failed to write row: %w", err)
			}
			rows++
		}
		if len(dues) < filter.PageSize {
			break
		}
		filter.Page++
	}

	if err := sw.Flush(); err != nil {
		return rows, fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return rows, fmt.Errorf("failed to write workbook: %w", err)
	}
	telemetry.SetAttributes(span, "rows", rows)
	return rows, nil
}

func exportRow(v *DueResponse) []interface{} {
	var daysOverdue interface{}
	if v.DaysOverdue != nil {
		daysOverdue = *v.DaysOverdue
	}
	return []interface{}{
		v.InvestorName,
		v.InvestorEmail,
		v.InvestmentTitle,
		FrequencyLabel(v.PayoutFrequency),
		v.Amount.InexactFloat64(),
		v.ExpectedReturn.InexactFloat64(),
		v.ActualReturn.InexactFloat64(),
		v.CompletedPayouts,
		v.TotalPayouts,
		v.PayoutAmount.InexactFloat64(),
		v.NextPayoutDate.Format(DateLayout),
		StatusLabel(v.Status),
		daysOverdue,
		v.ProgressPercentage,
	}
}
