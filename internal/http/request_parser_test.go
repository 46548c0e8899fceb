package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budget/internal/core"
)

func TestParseEntryForm(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAmount int64
		wantDesc   string
		wantErr    error
	}{
		{"plain", "amount=42&description=Coffee", 42, "Coffee", nil},
		{"whitespace amount", "amount=+7+&description=x", 7, "x", nil},
		{"negative amount", "amount=-5&description=refund", -5, "refund", nil},
		{"description trimmed", "amount=1&description=%20%20rent%0A", 1, "rent", nil},
		{"empty description", "amount=3", 3, "", nil},
		{"not a number", "amount=abc", 0, "", core.ErrInvalidAmount},
		{"decimal", "amount=1.5", 0, "", core.ErrInvalidAmount},
		{"separator", "amount=1%2C000", 0, "", core.ErrInvalidAmount},
		{"too long", "amount=1&description=" + strings.Repeat("a", 201), 0, "", core.ErrDescriptionTooLong},
		{"multibyte at limit", "amount=1&description=" + strings.Repeat("%E2%82%AC", 200), 1, strings.Repeat("€", 200), nil},
		{"multibyte over limit", "amount=1&description=" + strings.Repeat("%E2%82%AC", 201), 0, "", core.ErrDescriptionTooLong},
		{"amount above cap", "amount=1000000000000001", 0, "", core.ErrInvalidAmount},
		{"int64 max", "amount=9223372036854775807", 0, "", core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/add-income", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			form, err := ParseEntryForm(httptest.NewRecorder(), req)
			if err != nil {
				t.Fatalf("ParseEntryForm() error = %v", err)
			}
			amount, err := form.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if amount != tt.wantAmount {
				t.Errorf("amount = %d, want %d", amount, tt.wantAmount)
			}
			if form.Description != tt.wantDesc {
				t.Errorf("description = %q, want %q", form.Description, tt.wantDesc)
			}
		})
	}
}

func TestParseEntryFormRejectsOversizedBody(t *testing.T) {
	body := "amount=1&description=" + strings.Repeat("a", maxFormBytes)
	req := httptest.NewRequest(http.MethodPost, "/add-income", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, err := ParseEntryForm(httptest.NewRecorder(), req); !errors.Is(err, errBadForm) {
		t.Fatalf("expected errBadForm, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := userMessage(core.ErrInvalidAmount); got != "Invalid amount. Please enter a number." {
		t.Errorf("userMessage(ErrInvalidAmount) = %q", got)
	}
	if got := userMessage(errors.New("boom")); strings.Contains(got, "boom") {
		t.Errorf("userMessage leaked error text: %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := map[string]string{
		"  hello  ":     "hello",
		"a\x00b":        "ab",
		"line\r\nbreak": "linebreak",
		"caffè":         "caffè",
		"":              "",
	}
	for in, want := range cases {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.2:1", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
		{"forwarded garbage ignored", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.0.2.1:5555", "192.0.2.1"},
		{"forwarded garbage falls to real ip", map[string]string{"X-Forwarded-For": "x1", "X-Real-IP": "198.51.100.7"}, "10.0.0.2:1", "198.51.100.7"},
		{"real ip garbage ignored", map[string]string{"X-Real-IP": "spoof"}, "192.0.2.1:5555", "192.0.2.1"},
		{"forwarded ipv6", map[string]string{"X-Forwarded-For": "2001:db8::1"}, "10.0.0.2:1", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
