package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carewave/hms/internal/platform/payment"
)

func newHandlerContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(txContext()))
	return c, rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandlerCreateBill(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)

	patientID := uuid.New()
	body := fmt.Sprintf(`{
		"patient_id": %q,
		"items": [
			{"description": "Consultation", "quantity": 1, "unit_price": "100.00", "tax_rate": "10"},
			{"description": "Lab panel", "quantity": 1, "unit_price": "100.00", "tax_rate": "10"}
		],
		"discount": {"percentage": "10"}
	}`, patientID)

	c, rec := newHandlerContext(t, http.MethodPost, "/bills", body)
	if err := h.CreateBill(c); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var got Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.BillNumber != "BILL-000001" {
		t.Errorf("bill number = %s", got.BillNumber)
	}
	if !got.FinalAmount.Equal(dec("198.00")) {
		t.Errorf("final amount = %s, want 198.00", got.FinalAmount)
	}
}

func TestHandlerCreateBillBadPayload(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)

	c, _ := newHandlerContext(t, http.MethodPost, "/bills", `{"items": []}`)
	err := h.CreateBill(c)
	if err == nil {
		t.Fatal("expected error")
	}
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", httpStatus(t, err))
	}
}

func TestHandlerGetBillNotFound(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)

	c, _ := newHandlerContext(t, http.MethodGet, "/bills/"+uuid.NewString(), "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetBill(c)
	if err == nil || httpStatus(t, err) != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandlerApplyPaymentDeclinedIs422(t *testing.T) {
	gw := &stubGateway{result: &payment.Result{Status: payment.StatusFailed, Message: "card declined"}}
	svc, _, _ := newTestService(gw)
	h := NewHandler(svc)
	b := createTestBill(t, svc)

	c, _ := newHandlerContext(t, http.MethodPost, "/bills/"+b.ID.String()+"/payments",
		`{"amount": "198.00", "mode": "card"}`)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	err := h.ApplyPayment(c)
	if err == nil || httpStatus(t, err) != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422", err)
	}
}

func TestHandlerApplyPaymentUnknownBillIs404(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)

	id := uuid.NewString()
	c, _ := newHandlerContext(t, http.MethodPost, "/bills/"+id+"/payments",
		`{"amount": "10.00", "mode": "cash"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)

	err := h.ApplyPayment(c)
	if err == nil || httpStatus(t, err) != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandlerConfirmPaymentUnknownPaymentIs404(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)
	b := createTestBill(t, svc)

	paymentID := uuid.NewString()
	c, _ := newHandlerContext(t, http.MethodPost,
		"/bills/"+b.ID.String()+"/payments/"+paymentID+"/confirm", `{}`)
	c.SetParamNames("id", "paymentID")
	c.SetParamValues(b.ID.String(), paymentID)

	err := h.ConfirmPayment(c)
	if err == nil || httpStatus(t, err) != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandlerApplyPaymentOverpaymentIs400(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)
	b := createTestBill(t, svc)

	c, _ := newHandlerContext(t, http.MethodPost, "/bills/"+b.ID.String()+"/payments",
		`{"amount": "500.00", "mode": "cash"}`)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	err := h.ApplyPayment(c)
	if err == nil || httpStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerApplyPaymentCash(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)
	b := createTestBill(t, svc)

	c, rec := newHandlerContext(t, http.MethodPost, "/bills/"+b.ID.String()+"/payments",
		`{"amount": "198.00", "mode": "cash"}`)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if err := h.ApplyPayment(c); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var p Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Status != PaymentCompleted {
		t.Errorf("payment status = %s", p.Status)
	}
}

func TestHandlerListBillsRequiresFilter(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)

	c, _ := newHandlerContext(t, http.MethodGet, "/bills", "")
	err := h.ListBills(c)
	if err == nil || httpStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerListBillsByStatus(t *testing.T) {
	svc, _, _ := newTestService(&stubGateway{})
	h := NewHandler(svc)
	createTestBill(t, svc)

	c, rec := newHandlerContext(t, http.MethodGet, "/bills?status=pending", "")
	if err := h.ListBills(c); err != nil {
		t.Fatalf("ListBills: %v", err)
	}

	var resp struct {
		Data  []*Bill `json:"data"`
		Total int     `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("total = %d, data = %d, want 1 each", resp.Total, len(resp.Data))
	}
}
