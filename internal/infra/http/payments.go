package http

import (
	"encoding/json"
	"net/http"

	"github.com/Spok95/tcms/internal/billing"
	"github.com/Spok95/tcms/internal/domain/access"
)

const maxPaymentBody = 1 << 16

// recordPayment handles POST /api/enrollments/{id}/payments with a body like
// {"amount": 2500, "method": "cash", "paidAt": "2025-03-04T10:00:00+05:30"}.
func (a *API) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in billing.PaymentInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPaymentBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment body")
		return
	}
	in.EnrollmentID = id

	p, err := a.cashier.RecordPayment(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	resp := map[string]any{
		"id":           p.ID,
		"enrollmentId": p.EnrollmentID,
		"paidAt":       p.PaidAt.Format(access.DateLayout),
		"amount":       p.Amount,
		"method":       p.Method,
	}
	if p.NextPaymentDate != nil {
		resp["nextPaymentDate"] = p.NextPaymentDate.Format(access.DateLayout)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) grantLatePay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.cashier.GrantLatePay(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeAccess(w, r, id)
}

// assignCard handles PUT /api/enrollments/{id}/card with {"card": "half"}.
func (a *API) assignCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Card access.CardType `json:"card"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPaymentBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid card body")
		return
	}
	if err := a.cashier.AssignCard(r.Context(), id, body.Card); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeAccess(w, r, id)
}

// writeAccess responds with the enrollment's access after a change.
func (a *API) writeAccess(w http.ResponseWriter, r *http.Request, id int64) {
	res, err := a.access.ForEnrollment(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
