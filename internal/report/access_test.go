package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/tcms/internal/domain/access"
)

func TestAccessFileName(t *testing.T) {
	assert.Equal(t, "class_access_20250310.xlsx", AccessFileName(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestAccessWorkbook(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	grace := time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)

	rows := []access.ClassAccess{
		{
			EnrollmentID: 1, StudentID: 10, StudentName: "nimal", ClassName: "Maths",
			Result: access.Result{
				CanAccess: true, Status: access.TagPaid, DaysRemaining: 29,
				NextPaymentDate: &next, GracePeriodEndDate: &grace,
				Message: "29 days remaining in grace period",
			},
		},
		{
			EnrollmentID: 2, StudentID: 11, StudentName: "kamal", ClassName: "Physics",
			Result: access.Result{Status: access.TagNoPayment, Message: "No payment recorded for this class"},
		},
	}

	data, err := AccessWorkbook(rows, day)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := f.GetRows(accessSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), 5)

	assert.Equal(t, []string{"enrollment_id", "student_id", "student", "class", "status",
		"access", "days_remaining", "next_payment", "grace_end", "message"}, got[0])
	assert.Equal(t, []string{"1", "10", "nimal", "Maths", "paid", "yes", "29",
		"2025-04-01", "2025-04-08", "29 days remaining in grace period"}, got[1])

	assert.Equal(t, "no", got[2][5])
	assert.Equal(t, "no-payment", got[2][4])

	footer, err := f.GetCellValue(accessSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Generated for 2025-03-10", footer)
}

func TestAccessWorkbook_Empty(t *testing.T) {
	data, err := AccessWorkbook(nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{accessSheet}, f.GetSheetList())
	v, err := f.GetCellValue(accessSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Generated for 2025-03-10", v)
}
