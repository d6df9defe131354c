// Package tui renders the backoffice sessions table in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	bsessions "github.com/MatheusAFD/mono-repo-auth/internal/backoffice/sessions"
	"github.com/MatheusAFD/mono-repo-auth/pkg/sessions"
)

const requestTimeout = 15 * time.Second

// -- messages --

type sessionsLoadedMsg struct {
	list []sessions.Session
	err  error
}

type sessionRevokedMsg struct {
	token string
	err   error
}

// -- model --

// Options configures the model.
type Options struct {
	// CurrentToken is the caller's own session token; its row is marked current.
	CurrentToken string
	// UserEmail is shown in the header.
	UserEmail string
	// Location formats creation times. Defaults to time.Local.
	Location *time.Location
}

// Model is the sessions table.
type Model struct {
	hooks    *bsessions.Hooks
	opts     Options
	rows     []Row
	cursor   int
	loading  bool
	revoking bool
	confirm  string // token awaiting y/n
	err      string // list failure
	notice   string // revoke/copy feedback
	width    int
	now      func() time.Time
	copy     func(string) error
}

// New returns the sessions table model.
func New(hooks *bsessions.Hooks, opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return Model{
		hooks:   hooks,
		opts:    opts,
		loading: true,
		now:     time.Now,
		copy:    clipboard.WriteAll,
	}
}

func (m Model) Init() tea.Cmd {
	return m.load(false)
}

func (m Model) load(force bool) tea.Cmd {
	q := m.hooks.Sessions()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		fetch := q.Fetch
		if force {
			fetch = q.Refetch
		}
		list, err := fetch(ctx).Unwrap()
		return sessionsLoadedMsg{list: list, err: err}
	}
}

func (m Model) focusRefetch() tea.Cmd {
	q := m.hooks.Sessions()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, refetched := q.OnFocus(ctx)
		if !refetched {
			return nil
		}
		list, err := res.Unwrap()
		return sessionsLoadedMsg{list: list, err: err}
	}
}

func (m Model) revoke(token string) tea.Cmd {
	mut := m.hooks.RevokeSession()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := mut.Mutate(ctx, token).Unwrap()
		return sessionRevokedMsg{token: token, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.FocusMsg:
		return m, m.focusRefetch()

	case sessionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.rows = BuildRows(msg.list, m.opts.CurrentToken, m.now(), m.opts.Location)
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}

	case sessionRevokedMsg:
		m.revoking = false
		if msg.err != nil {
			m.notice = "Revoke failed: " + msg.err.Error()
			return m, nil
		}
		m.notice = "Session " + TruncateToken(msg.token) + " revoked"
		m.loading = true
		return m, m.load(false)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != "" {
		switch msg.String() {
		case "y", "enter":
			token := m.confirm
			m.confirm = ""
			m.revoking = true
			m.notice = ""
			return m, m.revoke(token)
		case "ctrl+c":
			return m, tea.Quit
		default:
			m.confirm = ""
			m.notice = "Revoke cancelled"
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading = true
		m.notice = ""
		return m, m.load(true)
	case "d", "x":
		row, ok := m.selected()
		if !ok || m.revoking || !row.Revocable() {
			return m, nil
		}
		m.confirm = row.Token
	case "c":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.copy(row.Token); err != nil {
			m.notice = "Copy failed: " + err.Error()
		} else {
			m.notice = "Token copied to clipboard"
		}
	}
	return m, nil
}

func (m Model) selected() (Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[m.cursor], true
}

// -- view --

var columns = []struct {
	title string
	width int
}{
	{"TOKEN", 24},
	{"DEVICE", 36},
	{"IP", 16},
	{"CREATED", 17},
	{"STATUS", 8},
	{"", 10},
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Active sessions"))
	if m.opts.UserEmail != "" {
		b.WriteString(helpStyle.Render("  signed in as " + m.opts.UserEmail))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.rows) == 0:
		b.WriteString("Loading sessions...\n")
	case m.err != "" && len(m.rows) == 0:
		b.WriteString(errorStyle.Render("Failed to load sessions: "+m.err) + "\n")
	case len(m.rows) == 0:
		b.WriteString("No active sessions.\n")
	default:
		if m.err != "" {
			b.WriteString(errorStyle.Render("Failed to refresh sessions: "+m.err) + "\n")
		}
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n")
	switch {
	case m.confirm != "":
		b.WriteString(noticeStyle.Render(fmt.Sprintf("Revoke session %s? [y/N]", TruncateToken(m.confirm))) + "\n")
	case m.revoking:
		b.WriteString(noticeStyle.Render("Revoking...") + "\n")
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString(helpStyle.Render("j/k move  d revoke  c copy token  r refresh  q quit"))
	return b.String()
}

func (m Model) renderTable() string {
	var b strings.Builder
	b.WriteString("  ")
	for _, c := range columns {
		b.WriteString(headerStyle.Render(pad(c.title, c.width)))
	}
	b.WriteString("\n")

	for i, r := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		token := tokenStyle.Render(r.Label)
		tokenWidth := utf8.RuneCountInString(r.Label)
		if r.Current {
			token += " " + currentStyle.Render("current")
			tokenWidth += len(" current")
		}
		status := expiredStyle.Render(pad("expired", columns[4].width))
		if r.Active {
			status = activeStyle.Render(pad("active", columns[4].width))
		}
		action := ""
		if r.Revocable() {
			action = revokeStyle.Render("[d] revoke")
		}

		line := cursor +
			token + strings.Repeat(" ", max(columns[0].width-tokenWidth, 1)) +
			pad(r.Device, columns[1].width) +
			pad(r.IP, columns[2].width) +
			pad(r.Created, columns[3].width) +
			status +
			action
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// pad truncates s to width-1 runes and right-pads it to width.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width-1 {
		runes = append(runes[:width-2], '…')
	}
	return string(runes) + strings.Repeat(" ", width-len(runes))
}
