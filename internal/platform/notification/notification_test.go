package notification

import (
	"context"
	"strings"
	"testing"
)

func newTestManager() (*Manager, *MockEmailSender, *MockSMSSender) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	return NewManager(email, sms, NewTemplateEngine()), email, sms
}

func TestTemplateRender(t *testing.T) {
	e := NewTemplateEngine()

	subject, body, err := e.Render("low-stock-alert", map[string]string{
		"medicine": "Amoxicillin",
		"stock":    "4",
		"min":      "10",
		"vendor":   "Acme Pharma",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Low Stock: Amoxicillin" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "dropped to 4 units") || !strings.Contains(body, "Acme Pharma") {
		t.Errorf("body = %q", body)
	}
}

func TestTemplateRenderUnknownID(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTemplateRenderLeavesMissingKeys(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render("payment-receipt", map[string]string{"amount": "198.00"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "{{patient_name}}") {
		t.Errorf("missing keys should stay as placeholders: %q", body)
	}
}

func TestRegisterTemplateOverrides(t *testing.T) {
	e := NewTemplateEngine()
	e.RegisterTemplate(Template{ID: "low-stock-alert", Subject: "Custom: {{medicine}}", Body: "x", Type: TypeEmail})

	subject, _, err := e.Render("low-stock-alert", map[string]string{"medicine": "Ibuprofen"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Custom: Ibuprofen" {
		t.Errorf("subject = %q", subject)
	}
}

func TestSendRoutesByType(t *testing.T) {
	mgr, email, sms := newTestManager()

	if err := mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Subject: "s", Body: "b"}); err != nil {
		t.Fatalf("Send email: %v", err)
	}
	if err := mgr.Send(context.Background(), &Notification{Type: TypeSMS, Recipient: "+1555", Body: "b"}); err != nil {
		t.Fatalf("Send sms: %v", err)
	}
	if len(email.Calls()) != 1 || len(sms.Calls()) != 1 {
		t.Errorf("calls = %d email, %d sms; want 1 each", len(email.Calls()), len(sms.Calls()))
	}

	if err := mgr.Send(context.Background(), &Notification{Type: "pigeon", Recipient: "x", Body: "b"}); err == nil {
		t.Error("expected unsupported type to fail")
	}
}

func TestSendRecordsStatus(t *testing.T) {
	mgr, email, _ := newTestManager()
	email.ShouldFail = true
	email.FailError = "smtp unreachable"

	n := &Notification{Type: TypeEmail, Recipient: "a@b.c", Subject: "s", Body: "b"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Fatal("expected send failure")
	}

	stored, err := mgr.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != "failed" || stored.Error != "smtp unreachable" {
		t.Errorf("status = %s, error = %q", stored.Status, stored.Error)
	}
}

func TestSendFromTemplate(t *testing.T) {
	mgr, _, sms := newTestManager()

	n, err := mgr.SendFromTemplate(context.Background(), "prescription-ready", map[string]string{
		"patient_name": "Asha",
	}, "+15550001")
	if err != nil {
		t.Fatalf("SendFromTemplate: %v", err)
	}
	if n.Type != TypeSMS {
		t.Errorf("type = %s, want sms from template", n.Type)
	}
	if n.Status != "sent" {
		t.Errorf("status = %s, want sent", n.Status)
	}

	calls := sms.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].Body, "Dear Asha") {
		t.Errorf("sms calls = %+v", calls)
	}
}

func TestRetry(t *testing.T) {
	mgr, email, _ := newTestManager()
	email.ShouldFail = true
	email.FailError = "smtp unreachable"

	n := &Notification{Type: TypeEmail, Recipient: "a@b.c", Subject: "s", Body: "b"}
	_ = mgr.Send(context.Background(), n)

	// Still failing.
	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected retry to fail while sender is down")
	}

	email.ShouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("Retry: %v", err)
	}

	stored, _ := mgr.Get(context.Background(), n.ID)
	if stored.Status != "sent" || stored.Error != "" {
		t.Errorf("status = %s, error = %q after successful retry", stored.Status, stored.Error)
	}

	// Retrying a sent notification is rejected.
	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected retry of sent notification to be rejected")
	}
}

func TestStats(t *testing.T) {
	mgr, email, _ := newTestManager()

	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "b"})
	email.ShouldFail = true
	email.FailError = "down"
	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "b"})

	stats := mgr.Stats(context.Background())
	if stats["sent"] != 1 || stats["failed"] != 1 {
		t.Errorf("stats = %v, want 1 sent and 1 failed", stats)
	}
}
