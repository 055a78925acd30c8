package prescription

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

func TestHandlerCreate(t *testing.T) {
	svc, _, medicines, _ := newTestService()
	med := seedMedicine(t, medicines, "Amoxicillin 500mg", 50)
	h := NewHandler(svc)

	body := fmt.Sprintf(`{
		"patient_id": %q,
		"doctor_id": %q,
		"diagnosis": "bacterial infection",
		"lines": [{"medicine_id": %q, "quantity": 10, "dosage": "500mg", "frequency": "twice daily"}]
	}`, uuid.New(), uuid.New(), med.ID)

	c, rec := newHandlerContext(t, http.MethodPost, "/prescriptions", body)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var got Prescription
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.DispensingStatus != DispensePending {
		t.Errorf("status = %s, want pending", got.DispensingStatus)
	}
	if len(got.Lines) != 1 || got.Lines[0].MedicineName != "Amoxicillin 500mg" {
		t.Errorf("lines = %+v", got.Lines)
	}
}

func TestHandlerCreateRejectsEmptyLines(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	body := fmt.Sprintf(`{"patient_id": %q, "doctor_id": %q, "lines": []}`, uuid.New(), uuid.New())
	c, _ := newHandlerContext(t, http.MethodPost, "/prescriptions", body)
	err := h.Create(c)
	if err == nil || httpStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerDispense(t *testing.T) {
	svc, _, medicines, _ := newTestService()
	med := seedMedicine(t, medicines, "Paracetamol", 50)
	p := createPrescription(t, svc, med, 10)
	h := NewHandler(svc)

	body := fmt.Sprintf(`{"items": [{"line_id": %q, "quantity": 10}]}`, p.Lines[0].ID)
	c, rec := newHandlerContext(t, http.MethodPost, "/prescriptions/"+p.ID.String()+"/dispense", body)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.Dispense(c); err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got Prescription
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.DispensingStatus != DispenseComplete {
		t.Errorf("status = %s, want complete", got.DispensingStatus)
	}
}

func TestHandlerDispenseInsufficientStock(t *testing.T) {
	svc, _, medicines, _ := newTestService()
	med := seedMedicine(t, medicines, "Paracetamol", 5)
	p := createPrescription(t, svc, med, 10)
	h := NewHandler(svc)

	body := fmt.Sprintf(`{"items": [{"line_id": %q, "quantity": 8}]}`, p.Lines[0].ID)
	c, _ := newHandlerContext(t, http.MethodPost, "/prescriptions/"+p.ID.String()+"/dispense", body)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.Dispense(c)
	if err == nil || httpStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerDispenseUnknownPrescription(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	id := uuid.NewString()
	body := fmt.Sprintf(`{"items": [{"line_id": %q, "quantity": 1}]}`, uuid.New())
	c, _ := newHandlerContext(t, http.MethodPost, "/prescriptions/"+id+"/dispense", body)
	c.SetParamNames("id")
	c.SetParamValues(id)

	err := h.Dispense(c)
	if err == nil || httpStatus(t, err) != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandlerGetInvalidID(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	c, _ := newHandlerContext(t, http.MethodGet, "/prescriptions/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.Get(c)
	if err == nil || httpStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerListRequiresFilter(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	c, _ := newHandlerContext(t, http.MethodGet, "/prescriptions", "")
	err := h.List(c)
	if err == nil || httpStatus(t, err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandlerListByPatient(t *testing.T) {
	svc, _, medicines, _ := newTestService()
	med := seedMedicine(t, medicines, "Paracetamol", 50)
	p := createPrescription(t, svc, med, 10)
	h := NewHandler(svc)

	c, rec := newHandlerContext(t, http.MethodGet, "/prescriptions?patient_id="+p.PatientID.String(), "")
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}

	var resp struct {
		Data  []*Prescription `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}
