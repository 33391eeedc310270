package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mesaflow/mesaflow-backend/internal/whatsapp"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
)

type fakeProcessor struct {
	calls []whatsapp.InboundMessage
	err   error
}

func (f *fakeProcessor) Process(_ context.Context, msg whatsapp.InboundMessage) error {
	f.calls = append(f.calls, msg)
	return f.err
}

func TestSimulateInbound(t *testing.T) {
	proc := &fakeProcessor{}
	handler := SimulateInbound(proc, nil)

	body := `{"business_account_id":"waba-1","from":"254700000001","text":"menu"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dev/simulate", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(proc.calls) != 1 {
		t.Fatalf("expected one processed message, got %d", len(proc.calls))
	}
	got := proc.calls[0]
	if got.Text != "menu" || got.Type != enums.MessageTypeText {
		t.Fatalf("unexpected message %+v", got)
	}
	if !strings.HasPrefix(got.ProviderMessageID, "sim:") {
		t.Fatalf("simulated messages need a synthetic provider id, got %q", got.ProviderMessageID)
	}
}

func TestSimulateInbound_ReplyIDBecomesInteractive(t *testing.T) {
	proc := &fakeProcessor{}
	handler := SimulateInbound(proc, nil)

	body := `{"business_account_id":"waba-1","from":"254700000001","reply_id":"cat:1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dev/simulate", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if proc.calls[0].Type != enums.MessageTypeInteractive {
		t.Fatalf("reply_id input should simulate an interactive tap")
	}
}

func TestSimulateInbound_RejectsMissingFields(t *testing.T) {
	proc := &fakeProcessor{}
	handler := SimulateInbound(proc, nil)

	cases := map[string]string{
		"missing from":    `{"business_account_id":"waba-1","text":"hi"}`,
		"missing payload": `{"business_account_id":"waba-1","from":"254700000001"}`,
		"unknown field":   `{"business_account_id":"waba-1","from":"254700000001","text":"hi","bogus":true}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/dev/simulate", bytes.NewReader([]byte(body)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if len(proc.calls) != 0 {
				t.Fatalf("invalid body must not reach the processor")
			}
		})
	}
}
