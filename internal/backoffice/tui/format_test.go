package tui

import (
	"testing"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/pkg/sessions"
)

func TestTruncateToken(t *testing.T) {
	cases := map[string]string{
		"abcdefghijklmnopqrstuvwxyz": "abcdefghijkl...",
		"abcdefghijkl":               "abcdefghijkl...",
		"short":                      "short...",
	}
	for in, want := range cases {
		if got := TruncateToken(in); got != want {
			t.Errorf("TruncateToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseUserAgent(t *testing.T) {
	cases := []struct {
		ua, want string
	}{
		{"", "-"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "Chrome/120.0.0.0 - Windows"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15", "Safari/605.1.15 - Mac OS X 14.0"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", "Firefox/121.0 - Linux"},
		{"curl/8.4.0", unknownBrowser},
	}
	for _, tc := range cases {
		if got := ParseUserAgent(tc.ua); got != tc.want {
			t.Errorf("ParseUserAgent(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}

func TestFormatIP(t *testing.T) {
	if FormatIP("") != "-" || FormatIP("10.0.0.1") != "10.0.0.1" {
		t.Error("FormatIP mismatch")
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 3, 7, 14, 5, 0, 0, time.UTC)
	if got := FormatTime(ts, time.UTC); got != "07/03/2026 14:05" {
		t.Errorf("FormatTime = %q", got)
	}
}

func TestBuildRows(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	list := []sessions.Session{
		{Token: "current-token-value", ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(-time.Hour), IPAddress: "10.0.0.1"},
		{Token: "expired-token-value", ExpiresAt: now, CreatedAt: now.Add(-48 * time.Hour)},
	}
	rows := BuildRows(list, "current-token-value", now, time.UTC)
	if len(rows) != 2 {
		t.Fatalf("len = %d", len(rows))
	}
	if !rows[0].Current || rows[0].Revocable() || !rows[0].Active {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[0].Label != "current-toke..." || rows[0].IP != "10.0.0.1" || rows[0].Created != "01/05/2026 11:00" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	// expiresAt equal to now is expired.
	if rows[1].Current || !rows[1].Revocable() || rows[1].Active || rows[1].IP != "-" || rows[1].Device != "-" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestBuildRows_NoCurrentToken(t *testing.T) {
	rows := BuildRows([]sessions.Session{{Token: ""}}, "", time.Now(), time.UTC)
	if rows[0].Current {
		t.Error("empty current token matched an empty session token")
	}
}
