package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nextprop/wabridge/internal/model"
)

func TestWebhookVerify_EchoesChallenge(t *testing.T) {
	s, mux := newTestServer(t, &fakeQueue{}, &fakeHolding{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet,
		"/v1/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=12345", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "12345" {
		t.Fatalf("expected challenge echoed, got %q", rr.Body.String())
	}
}

func TestWebhookVerify_WrongTokenRejected(t *testing.T) {
	s, mux := newTestServer(t, &fakeQueue{}, &fakeHolding{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet,
		"/v1/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%q", rr.Code, rr.Body.String())
	}
}

func TestWebhookReceive_StatusesReconciled(t *testing.T) {
	fq := &fakeQueue{}
	s, mux := newTestServer(t, fq, &fakeHolding{})
	defer s.Stop()

	payload := `{
		"entry": [{
			"changes": [{
				"value": {
					"statuses": [
						{"id": "wamid.123", "status": "delivered"},
						{"id": "wamid.456", "status": "read"}
					]
				}
			}]
		}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}

	fq.mu.Lock()
	defer fq.mu.Unlock()
	if fq.receipts["wamid.123"] != model.ReceiptDelivered {
		t.Fatalf("expected wamid.123 delivered, got %v", fq.receipts)
	}
	if fq.receipts["wamid.456"] != model.ReceiptRead {
		t.Fatalf("expected wamid.456 read, got %v", fq.receipts)
	}
}

func TestWebhookReceive_UnknownSenderHeld(t *testing.T) {
	fh := &fakeHolding{}
	s, mux := newTestServer(t, &fakeQueue{}, fh)
	defer s.Stop()

	payload := `{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [
						{"from": "27820000000", "id": "wamid.in1", "type": "text", "text": {"body": "hello?"}}
					]
				}
			}]
		}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}

	fh.mu.Lock()
	defer fh.mu.Unlock()
	if len(fh.held) != 1 {
		t.Fatalf("expected 1 held inbound, got %d", len(fh.held))
	}
	if fh.held[0].Reason != model.HoldReasonUnknownSender {
		t.Fatalf("expected unknown_sender reason, got %q", fh.held[0].Reason)
	}
	if fh.held[0].Body != "hello?" {
		t.Fatalf("expected held body, got %q", fh.held[0].Body)
	}
}

func TestWebhookReceive_NonTextMessagesIgnored(t *testing.T) {
	fh := &fakeHolding{}
	s, mux := newTestServer(t, &fakeQueue{}, fh)
	defer s.Stop()

	payload := `{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [
						{"from": "27820000000", "id": "wamid.img", "type": "image"}
					]
				}
			}]
		}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}

	fh.mu.Lock()
	defer fh.mu.Unlock()
	if len(fh.held) != 0 {
		t.Fatalf("expected non-text messages ignored, got %v", fh.held)
	}
}

func TestWebhookReceive_InvalidJSON(t *testing.T) {
	s, mux := newTestServer(t, &fakeQueue{}, &fakeHolding{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%q", rr.Code, rr.Body.String())
	}
}

func TestWebhookReceive_EmptyPayloadIsFine(t *testing.T) {
	s, mux := newTestServer(t, &fakeQueue{}, &fakeHolding{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(`{"entry":[]}`))
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
}
