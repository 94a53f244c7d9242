package paywidget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req CreateIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Amount != 75000 || req.Currency != "mxn" || req.Metadata["reserva_id"] != "55" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("unexpected request"))
			return
		}
		_ = json.NewEncoder(w).Encode(Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: req.Amount, Currency: req.Currency, Status: StatusRequiresPM})
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, SecretKey: "sk_test", Timeout: time.Second})
	intent, err := client.CreateIntent(context.Background(), CreateIntentRequest{
		Amount:   ToMinorUnits(750),
		Currency: "MXN",
		Metadata: map[string]string{"reserva_id": "55"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" || intent.Succeeded() {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}

func TestCreateIntentRejectsZeroAmount(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", SecretKey: "sk"})
	if _, err := client.CreateIntent(context.Background(), CreateIntentRequest{Currency: "mxn"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGetIntentNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such intent"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, SecretKey: "sk"})
	_, err := client.GetIntent(context.Background(), "pi_missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{750, 75000},
		{19.99, 1999},
		{0.125, 13},
		{0, 0},
	}
	for _, tc := range cases {
		if got := ToMinorUnits(tc.in); got != tc.want {
			t.Fatalf("ToMinorUnits(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if FromMinorUnits(1999) != 19.99 {
		t.Fatalf("unexpected FromMinorUnits result: %v", FromMinorUnits(1999))
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"type":"payment_intent.succeeded","data":{"id":"pi_1"}}`)
	sig := GenerateSignature(payload, "whsec")

	if !VerifySignature(payload, sig, "whsec") {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature(payload, sig, "other") {
		t.Fatal("wrong secret must not verify")
	}
	if VerifySignature(append(payload, ' '), sig, "whsec") {
		t.Fatal("tampered payload must not verify")
	}
	if VerifySignature(payload, "zz", "whsec") {
		t.Fatal("non-hex signature must not verify")
	}

	ev, err := ParseWebhook(payload)
	if err != nil || ev.Type != EventIntentSucceeded || ev.Data.ID != "pi_1" {
		t.Fatalf("unexpected parse result: %+v %v", ev, err)
	}
}
