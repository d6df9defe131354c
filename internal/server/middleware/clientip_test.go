package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"192.0.2.4", "192.0.2.4", true},
		{"192.0.2.4:1234", "192.0.2.4", true},
		{"[2001:db8::1]:443", "2001:db8::1", true},
		{"fe80::1%eth0", "fe80::1", true},
		{"[::1]:port", "::1", true},
		{" ", "", false},
		{"not-an-ip", "not-an-ip", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeIP(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeIP(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestClientIP_Precedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ClientIP(r); got != "10.0.0.9" {
		t.Errorf("remote addr: got %q", got)
	}
	r.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ClientIP(r); got != "10.0.0.2" {
		t.Errorf("x-real-ip: got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Errorf("x-forwarded-for: got %q", got)
	}
}

func TestTruncateUserAgent(t *testing.T) {
	short := "Mozilla/5.0"
	if TruncateUserAgent(short) != short {
		t.Error("short user agent should be unchanged")
	}
	long := strings.Repeat("é", MaxUserAgentLength+10)
	got := TruncateUserAgent(long)
	if n := utf8.RuneCountInString(got); n != MaxUserAgentLength {
		t.Errorf("rune count = %d, want %d", n, MaxUserAgentLength)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}

func TestClientInfo_Middleware(t *testing.T) {
	var ip, ua string
	h := ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = ClientIPFromContext(r.Context())
		ua = UserAgentFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.3:1000"
	r.Header.Set("User-Agent", "test-agent")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if ip != "198.51.100.3" || ua != "test-agent" {
		t.Errorf("ip=%q ua=%q", ip, ua)
	}
}
