package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/tcms/internal/billing"
	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/domain/enrollments"
	"github.com/Spok95/tcms/internal/domain/payments"
	"github.com/Spok95/tcms/internal/report"
)

type AccessReader interface {
	ForStudent(ctx context.Context, studentID int64) ([]access.ClassAccess, error)
	ForEnrollment(ctx context.Context, enrollmentID int64) (access.ClassAccess, error)
	All(ctx context.Context) ([]access.ClassAccess, error)
	Today() time.Time
}

type Cashier interface {
	RecordPayment(ctx context.Context, in billing.PaymentInput) (payments.Payment, error)
	GrantLatePay(ctx context.Context, enrollmentID int64) error
	AssignCard(ctx context.Context, enrollmentID int64, card access.CardType) error
}

// API serves the JSON endpoints the class-management front end calls.
type API struct {
	log     *slog.Logger
	access  AccessReader
	cashier Cashier
	token   string
}

// NewAPI builds the handlers. Cashier endpoints require
// "Authorization: Bearer <token>"; with an empty token they are disabled.
func NewAPI(log *slog.Logger, ar AccessReader, c Cashier, token string) *API {
	return &API{log: log, access: ar, cashier: c, token: token}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/students/{id}/access", a.studentAccess)
	mux.HandleFunc("GET /api/enrollments/{id}/access", a.enrollmentAccess)
	mux.HandleFunc("POST /api/enrollments/{id}/payments", a.cashierOnly(a.recordPayment))
	mux.HandleFunc("POST /api/enrollments/{id}/late-pay", a.cashierOnly(a.grantLatePay))
	mux.HandleFunc("PUT /api/enrollments/{id}/card", a.cashierOnly(a.assignCard))
	mux.HandleFunc("GET /api/reports/access.xlsx", a.accessReport)
}

func (a *API) studentAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := a.access.ForStudent(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []access.ClassAccess{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) enrollmentAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := a.access.ForEnrollment(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) accessReport(w http.ResponseWriter, r *http.Request) {
	list, err := a.access.All(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	day := a.access.Today()
	data, err := report.AccessWorkbook(list, day)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.AccessFileName(day)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, enrollments.ErrNotFound):
		writeError(w, http.StatusNotFound, "enrollment not found")
	case errors.Is(err, billing.ErrInvalidInput), errors.Is(err, billing.ErrUnknownCard):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("request failed",
			"request_id", RequestIDFrom(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
