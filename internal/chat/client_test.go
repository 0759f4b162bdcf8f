package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendResendsFullHistory(t *testing.T) {
	var got struct {
		Query   string    `json:"query"`
		History []Message `json:"history"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{"response": "The late fee clause is on page 3."}`)
	}))
	defer server.Close()

	history := []Message{
		{Role: "assistant", Content: "Ask me about the document."},
		{Role: "user", Content: "Any fee risks?"},
		{Role: "assistant", Content: "Yes, compounding late fees."},
	}

	client := New(server.URL)
	reply, err := client.Send(context.Background(), "Where exactly?", history)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "The late fee clause is on page 3." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if got.Query != "Where exactly?" {
		t.Errorf("query = %q", got.Query)
	}
	if len(got.History) != 3 {
		t.Errorf("expected full history of 3 turns, got %d", len(got.History))
	}
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Send(context.Background(), "hi", nil); !errors.Is(err, ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
}

func TestSendMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Send(context.Background(), "hi", nil); !errors.Is(err, ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
}
