package http

import (
	"bytes"
	"net"
	"net/http"
	"strings"
	"unicode"

	"budget/internal/core"
	"budget/internal/log"
)

type menuItem struct {
	Label string
	Path  string
}

// menu is the list of actions shown on every page.
var menu = []menuItem{
	{Label: "Add Income", Path: "/add-income"},
	{Label: "Add Expense", Path: "/add-expense"},
	{Label: "Show Balance", Path: "/show-balance"},
	{Label: "Show Transaction History", Path: "/show-history"},
}

type historyRow struct {
	Number      int
	Kind        core.Kind
	Label       string
	Signed      int64
	Description string
}

type pageData struct {
	Title   string
	Active  string
	Menu    []menuItem
	Durable bool

	// entry forms
	Error       string
	Amount      string
	Description string

	Balance      int64
	Count        int
	Transactions []historyRow
}

func (s *Server) page(title, active string) pageData {
	return pageData{Title: title, Active: active, Menu: menu, Durable: s.ledger != nil && s.ledger.Durable()}
}

func historyRows(txs []core.Transaction) []historyRow {
	rows := make([]historyRow, len(txs))
	for i, tx := range txs {
		rows[i] = historyRow{
			Number:      i + 1,
			Kind:        tx.Kind,
			Label:       tx.Kind.Label(),
			Signed:      tx.Signed(),
			Description: tx.Description,
		}
	}
	return rows
}

// render executes a template into a buffer so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data pageData) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldTemplate, name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldTemplate, name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// clientIP returns the first forwarded address, then X-Real-IP, then the peer
// host. Header values that do not parse as an IP are ignored.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// sanitizeInput trims the value and drops control characters.
func sanitizeInput(input string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input))
}
