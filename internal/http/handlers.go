package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	s.render(w, r, "index.html", http.StatusOK, s.page("Menu", "/"))
}

type entryRoute struct {
	title    string
	path     string
	template string
}

var entryRoutes = map[core.Kind]entryRoute{
	core.Income:  {title: "Add Income", path: "/add-income", template: "add_income.html"},
	core.Expense: {title: "Add Expense", path: "/add-expense", template: "add_expense.html"},
}

// handleEntry serves the form for kind on GET and records it on POST.
func (s *Server) handleEntry(kind core.Kind) http.HandlerFunc {
	route := entryRoutes[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.render(w, r, route.template, http.StatusOK, s.page(route.title, route.path))
		case http.MethodPost:
			s.createEntry(w, r, kind, route)
		default:
			methodNotAllowed(w, "GET, POST")
		}
	}
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request, kind core.Kind, route entryRoute) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	data := s.page(route.title, route.path)
	form, err := ParseEntryForm(w, r)
	if err != nil {
		logger.WarnContext(ctx, "Parse form error", log.FieldError, err, log.FieldPath, r.URL.Path)
		data.Error = userMessage(err)
		s.render(w, r, route.template, http.StatusBadRequest, data)
		return
	}
	data.Amount = form.Amount
	data.Description = form.Description

	amount, err := form.Validate()
	if err != nil {
		logger.InfoContext(ctx, "Entry validation failed",
			log.FieldKind, string(kind),
			log.FieldOperation, log.OpParse,
			log.FieldError, err)
		data.Error = userMessage(err)
		s.render(w, r, route.template, http.StatusUnprocessableEntity, data)
		return
	}

	record := s.ledger.RecordIncome
	if kind == core.Expense {
		record = s.ledger.RecordExpense
	}
	if _, err := record(ctx, amount, form.Description); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrBalanceOutOfRange) {
			status = http.StatusUnprocessableEntity
		}
		logger.Log(ctx, levelFor(status), "Failed to record transaction",
			log.FieldKind, string(kind),
			log.FieldAmount, amount,
			log.FieldError, err)
		data.Error = userMessage(err)
		s.render(w, r, route.template, status, data)
		return
	}

	http.Redirect(w, r, "/show-balance", http.StatusSeeOther)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data := s.page("Show Balance", "/show-balance")
	data.Balance = s.ledger.Balance()
	data.Count = s.ledger.Count()
	s.render(w, r, "balance.html", http.StatusOK, data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data := s.page("Show Transaction History", "/show-history")
	data.Transactions = historyRows(s.ledger.History())
	s.render(w, r, "history.html", http.StatusOK, data)
}

// handleExit takes the user back to the menu; the server keeps running.
func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports whether templates are loaded and the ledger is reachable
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ledger == nil:
		checks["ledger"] = "failed: not configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.ledger.Ping(ctx); err != nil {
			checks["ledger"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["ledger"] = "ok"
		}
	}

	if httpStatus != http.StatusOK {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "checks", checks)
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	requests := s.tracer.GetMetrics()
	limits := s.limiter.GetMetrics()

	var b strings.Builder
	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", requests.TotalRequests)
	metric("ledger_transactions_total", "counter", "Transactions recorded in the ledger", int64(s.ledger.Count()))
	metric("ledger_balance", "gauge", "Current ledger balance", s.ledger.Balance())
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limits.TotalHits)
	metric("rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", limits.ClientCount)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}
