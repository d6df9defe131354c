// Backoffice is the terminal session manager for backoffice admins.
//
//	backoffice -api http://localhost:4000 -email admin@example.com
//
// The password is read from BACKOFFICE_PASSWORD. Debug logs go to -log (default: discarded)
// so they do not corrupt the alternate screen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MatheusAFD/mono-repo-auth/internal/backoffice/query"
	bsessions "github.com/MatheusAFD/mono-repo-auth/internal/backoffice/sessions"
	"github.com/MatheusAFD/mono-repo-auth/internal/backoffice/tui"
	"github.com/MatheusAFD/mono-repo-auth/internal/logging"
	"github.com/MatheusAFD/mono-repo-auth/pkg/auth"
	"github.com/MatheusAFD/mono-repo-auth/pkg/httpclient"
	"github.com/MatheusAFD/mono-repo-auth/pkg/sessions"
)

const (
	staleTime = 30 * time.Second
	// defaultAPIURL points at the API's default HTTP_ADDR.
	defaultAPIURL = "http://localhost:4000"
)

var errNotBackoffice = errors.New("access denied: backoffice role required")

type options struct {
	apiURL   string
	email    string
	password string
	logPath  string
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.apiURL, "api", envOr("BACKOFFICE_API_URL", defaultAPIURL), "API base URL")
	flag.StringVar(&opts.email, "email", os.Getenv("BACKOFFICE_EMAIL"), "admin email")
	flag.StringVar(&opts.logPath, "log", "", "write debug logs to this file")
	flag.StringVar(&opts.logLevel, "log-level", "debug", "log level")
	flag.Parse()
	opts.password = os.Getenv("BACKOFFICE_PASSWORD")

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.email == "" || opts.password == "" {
		return errors.New("email (-email or BACKOFFICE_EMAIL) and BACKOFFICE_PASSWORD are required")
	}

	var logOut io.Writer = io.Discard
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.NewLoggerTo(logOut, logging.Config{
		ServiceName: "backoffice",
		Environment: "cli",
		Level:       opts.logLevel,
	})
	slog.SetDefault(logger)

	hc, err := httpclient.New(opts.apiURL, httpclient.WithLogger(logger))
	if err != nil {
		return err
	}
	authClient := auth.NewClient(hc)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	data, err := authClient.SignIn(ctx, opts.email, opts.password).Unwrap()
	cancel()
	if err != nil {
		if httpclient.IsStatus(err, 401) {
			return errors.New("invalid email or password")
		}
		return fmt.Errorf("sign in: %w", err)
	}
	defer signOut(authClient, logger)

	if data == nil || data.User.Role != auth.RoleBackoffice {
		return errNotBackoffice
	}

	hooks := bsessions.NewHooks(query.NewClient(staleTime), sessions.NewClient(hc))
	model := tui.New(hooks, tui.Options{
		CurrentToken: data.Session.Token,
		UserEmail:    data.User.Email,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func signOut(c *auth.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.SignOut(ctx).Unwrap(); err != nil {
		logger.Warn("sign out failed", "error", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
