package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is a deterministic test double. Outcomes are configured per
// payment mode (or via a default), never randomized, so tests and local
// development behave reproducibly.
type MockGateway struct {
	mu            sync.Mutex
	defaultStatus Status
	byMode        map[string]Status
	requests      []Request
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		defaultStatus: StatusSucceeded,
		byMode:        make(map[string]Status),
	}
}

// SetDefaultStatus sets the outcome returned for modes without an override.
func (g *MockGateway) SetDefaultStatus(s Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaultStatus = s
}

// SetModeStatus overrides the outcome for a specific payment mode.
func (g *MockGateway) SetModeStatus(mode string, s Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byMode[mode] = s
}

// Requests returns a copy of every request processed so far.
func (g *MockGateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.requests))
	copy(out, g.requests)
	return out
}

func (g *MockGateway) Process(_ context.Context, req Request) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)

	status := g.defaultStatus
	if s, ok := g.byMode[req.Mode]; ok {
		status = s
	}

	res := &Result{Status: status}
	if status != StatusFailed {
		res.TransactionID = "mock-" + uuid.New().String()
	}
	if status == StatusFailed {
		res.Message = "declined by mock gateway"
	}
	return res, nil
}
