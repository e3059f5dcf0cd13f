package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/tcms/internal/domain/access"
)

const accessSheet = "Access"

var accessHeader = []interface{}{
	"enrollment_id",
	"student_id",
	"student",
	"class",
	"status",
	"access",
	"days_remaining",
	"next_payment",
	"grace_end",
	"message",
}

// AccessFileName is the download name for a report generated on day.
func AccessFileName(day time.Time) string {
	return fmt.Sprintf("class_access_%s.xlsx", day.Format("20060102"))
}

// AccessWorkbook renders one row per enrollment into a single-sheet xlsx.
func AccessWorkbook(rows []access.ClassAccess, day time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), accessSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(accessSheet, "A1", &accessHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for i, r := range rows {
		granted := "no"
		if r.CanAccess {
			granted = "yes"
		}
		line := []interface{}{
			r.EnrollmentID,
			r.StudentID,
			r.StudentName,
			r.ClassName,
			string(r.Status),
			granted,
			r.DaysRemaining,
			formatDate(r.NextPaymentDate),
			formatDate(r.GracePeriodEndDate),
			r.Message,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(accessSheet, cell, &line); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	footer, err := excelize.CoordinatesToCellName(1, len(rows)+3)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellValue(accessSheet, footer, "Generated for "+day.Format(access.DateLayout)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(access.DateLayout)
}
