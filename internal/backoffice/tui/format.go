package tui

import (
	"regexp"
	"strings"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/pkg/sessions"
)

const (
	tokenPrefixLen = 12
	timeLayout     = "02/01/2006 15:04"
	unknownBrowser = "Unknown browser"
)

var (
	browserPattern = regexp.MustCompile(`(Chrome|Firefox|Safari|Edge|Opera)/[\d.]+`)
	osPattern      = regexp.MustCompile(`(?i)(Windows|Mac OS X|Linux|Android|iOS)[\s/]?[\d._]*`)
)

// Row is one rendered session.
type Row struct {
	Token   string // full token, used for revoke and copy
	Label   string // truncated token
	Device  string
	IP      string
	Created string
	Active  bool
	// Current marks the caller's own session; its revoke action is hidden.
	Current bool
}

// Revocable reports whether the row offers the revoke action.
func (r Row) Revocable() bool { return !r.Current }

// TruncateToken keeps the first 12 characters followed by "...".
func TruncateToken(token string) string {
	runes := []rune(token)
	if len(runes) > tokenPrefixLen {
		runes = runes[:tokenPrefixLen]
	}
	return string(runes) + "..."
}

// ParseUserAgent returns "browser - os", the browser alone, or "-" for an empty user agent.
func ParseUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "-"
	}
	browser := browserPattern.FindString(ua)
	if browser == "" {
		browser = unknownBrowser
	}
	os := strings.TrimSpace(strings.ReplaceAll(osPattern.FindString(ua), "_", "."))
	if os == "" {
		return browser
	}
	return browser + " - " + os
}

// FormatIP returns ip or "-" when missing.
func FormatIP(ip string) string {
	if strings.TrimSpace(ip) == "" {
		return "-"
	}
	return ip
}

// FormatTime renders t as dd/mm/yyyy hh:mm in loc.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLayout)
}

// BuildRows maps sessions to rows in the given order. Status is computed against now.
func BuildRows(list []sessions.Session, currentToken string, now time.Time, loc *time.Location) []Row {
	rows := make([]Row, 0, len(list))
	for _, s := range list {
		rows = append(rows, Row{
			Token:   s.Token,
			Label:   TruncateToken(s.Token),
			Device:  ParseUserAgent(s.UserAgent),
			IP:      FormatIP(s.IPAddress),
			Created: FormatTime(s.CreatedAt, loc),
			Active:  s.IsActive(now),
			Current: currentToken != "" && s.Token == currentToken,
		})
	}
	return rows
}
