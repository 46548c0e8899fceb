package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budget/internal/core"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentLedger, Output: &buf})

	l.Info("recorded", FieldAmount, 100)

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "amount=100") {
		t.Fatalf("unexpected log line: %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level filtering failed: %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).WithComponent(ComponentHTTP)
	if l.Component() != ComponentHTTP {
		t.Fatalf("Component() = %q", l.Component())
	}
	l.Info("x")
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("component should appear once: %q", buf.String())
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", l)
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Component: ComponentHTTP})

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("expected request id in log: %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentLedger).
		WithOperation(OpRecord).
		WithTransaction(core.Transaction{Kind: core.Expense, Amount: 30, Description: "groceries"}).
		WithBalance(70).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldKind] != "expense" || f[FieldAmount] != int64(30) || f[FieldBalance] != int64(70) {
		t.Fatalf("unexpected fields: %v", f)
	}
	if f[FieldError] != "boom" {
		t.Fatalf("nil error must not overwrite: %v", f[FieldError])
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
}
