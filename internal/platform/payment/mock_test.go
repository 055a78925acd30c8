package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMockGatewayDefaultsToSuccess(t *testing.T) {
	g := NewMockGateway()

	res, err := g.Process(context.Background(), Request{BillID: "b1", Mode: "card", Amount: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Status != StatusSucceeded {
		t.Errorf("status = %s, want succeeded", res.Status)
	}
	if res.TransactionID == "" {
		t.Error("no transaction id on success")
	}
}

func TestMockGatewayModeOverride(t *testing.T) {
	g := NewMockGateway()
	g.SetModeStatus("insurance", StatusPending)
	g.SetModeStatus("card", StatusFailed)

	res, _ := g.Process(context.Background(), Request{Mode: "insurance"})
	if res.Status != StatusPending {
		t.Errorf("insurance status = %s, want pending", res.Status)
	}
	if res.TransactionID == "" {
		t.Error("pending charge should carry a transaction id")
	}

	res, _ = g.Process(context.Background(), Request{Mode: "card"})
	if res.Status != StatusFailed {
		t.Errorf("card status = %s, want failed", res.Status)
	}
	if res.TransactionID != "" {
		t.Error("failed charge should not carry a transaction id")
	}
	if res.Message == "" {
		t.Error("failed charge should carry a message")
	}

	// Other modes keep the default.
	res, _ = g.Process(context.Background(), Request{Mode: "upi"})
	if res.Status != StatusSucceeded {
		t.Errorf("upi status = %s, want succeeded", res.Status)
	}
}

func TestMockGatewayRecordsRequests(t *testing.T) {
	g := NewMockGateway()
	g.SetDefaultStatus(StatusFailed)

	_, _ = g.Process(context.Background(), Request{BillID: "b1", Mode: "card"})
	_, _ = g.Process(context.Background(), Request{BillID: "b2", Mode: "upi"})

	reqs := g.Requests()
	if len(reqs) != 2 || reqs[0].BillID != "b1" || reqs[1].BillID != "b2" {
		t.Errorf("requests = %+v", reqs)
	}
}
