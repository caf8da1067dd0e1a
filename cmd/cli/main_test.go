package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iho/payledger/internal/infrastructure/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}); err != nil {
		t.Fatalf("printJSON failed: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestEntriesListSendsSessionHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger-entries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Tenant-ID") != "t1" || r.Header.Get("X-User-ID") != "u1" {
			t.Errorf("missing session headers: %v", r.Header)
		}
		if r.URL.Query().Get("status") != "COMPLETED" {
			t.Errorf("expected status filter, got %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":       []map[string]string{{"id": "le-1", "type": "DEPOSIT", "status": "COMPLETED", "amount": "10"}},
			"total":       1,
			"page":        1,
			"total_pages": 1,
		})
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "--tenant", "t1", "--user", "u1", "entries", "list", "--status", "COMPLETED")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "le-1") || !strings.Contains(out, "page 1 of 1 (1 entries)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPaymentsCreateSendsIdempotencyKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Idempotency-Key") != "k1" {
			t.Errorf("expected idempotency key, got %q", r.Header.Get("Idempotency-Key"))
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["payment_method_type"] != "CREDIT_CARD" || body["amount"] != "12.00" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"PAID"}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "--token", "tok",
		"payments", "create", "--to", "acc-1", "--amount", "12.00", "--method", "credit_card", "--idempotency-key", "k1")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, `"status": "PAID"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestAPIErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"failed to get ledger entry","code":"LEDGER_ENTRY_NOT_FOUND"}`))
	}))
	defer server.Close()

	_, err := execute(t, "--url", server.URL, "--tenant", "t1", "entries", "get", "missing")
	if err == nil || !strings.Contains(err.Error(), "LEDGER_ENTRY_NOT_FOUND") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestAuditFailsOnDiscrepancies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_accounts":2,"reconciled_accounts":1,"discrepancies":[{"account_id":"a2"}]}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "--tenant", "t1", "audit")
	if err == nil {
		t.Fatalf("expected audit to fail")
	}
	if !strings.Contains(out, "Balance audit FAILED: 1 discrepancies") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTokenCmdIssuesVerifiableToken(t *testing.T) {
	out, err := execute(t, "token", "--secret", "s3cret", "--tenant", "t1", "--user", "u1")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.TenantID != "t1" || claims.UserID != "u1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
