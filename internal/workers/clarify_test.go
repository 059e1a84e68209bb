package workers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestClarification(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}))
	defer srv.Close()

	if err := RequestClarification(srv.URL, "which port?"); err != nil {
		t.Fatalf("RequestClarification() error: %v", err)
	}
	if received["need_clarification"] != true {
		t.Errorf("need_clarification = %v, want true", received["need_clarification"])
	}
	if received["question"] != "which port?" {
		t.Errorf("question = %v", received["question"])
	}
}

func TestRequestClarificationNoEndpoint(t *testing.T) {
	if err := RequestClarification("", "anyone there?"); err == nil {
		t.Error("expected error without an endpoint")
	}
}

func TestRequestClarificationRejectedAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "busy"})
	}))
	defer srv.Close()

	if err := RequestClarification(srv.URL, "q"); err == nil {
		t.Error("expected error for non-received ack")
	}
}

func TestRequestClarificationServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := RequestClarification(srv.URL, "q"); err == nil {
		t.Error("expected error for 500 response")
	}
}
