package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit"
	identitydomain "github.com/MatheusAFD/mono-repo-auth/internal/identity/domain"
	"github.com/MatheusAFD/mono-repo-auth/internal/metrics"
	"github.com/MatheusAFD/mono-repo-auth/internal/security"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/middleware"
	sessiondomain "github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry"
	telemetrydomain "github.com/MatheusAFD/mono-repo-auth/internal/telemetry/domain"
	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

// Sentinel errors for auth service; handler maps them to HTTP statuses.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUserBanned             = errors.New("user is banned")
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	eventSource       = "auth_service"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.Provider) (*identitydomain.Account, error)
	Create(ctx context.Context, a *identitydomain.Account) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	GetByToken(ctx context.Context, token string) (*sessiondomain.Session, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	Extend(ctx context.Context, token string, expiresAt, updatedAt time.Time) error
}

// Options holds the session lifetime settings.
type Options struct {
	// ExpiresIn is the lifetime of a new or refreshed session.
	ExpiresIn time.Duration
	// UpdateAge is how long after the last refresh activity extends the session again.
	UpdateAge time.Duration
}

// SignUpInput is the payload of an email sign-up.
type SignUpInput struct {
	Name      string
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// SignInInput is the payload of an email sign-in.
type SignInInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// AuthResult is a session together with its user.
type AuthResult struct {
	Session *sessiondomain.Session
	User    *userdomain.User
}

// AuthService implements email/password sign-up, sign-in, sign-out and session resolution.
type AuthService struct {
	users    UserRepo
	accounts AccountRepo
	sessions SessionRepo
	hasher   *security.Hasher
	events   telemetry.EventEmitter
	audit    audit.AuditLogger
	opts     Options
	now      func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. events and auditLogger may be nil.
func NewAuthService(
	users UserRepo,
	accounts AccountRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	events telemetry.EventEmitter,
	auditLogger audit.AuditLogger,
	opts Options,
) *AuthService {
	return &AuthService{
		users:    users,
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		events:   events,
		audit:    auditLogger,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates a portal user with a credential account and signs them in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	email := userdomain.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	now := s.now()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Role:      userdomain.DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	account := &identitydomain.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.ProviderCredential,
		AccountID:    user.ID,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	sess, err := s.createSession(ctx, user, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, user.ID, "sign_up", "")
	return &AuthResult{Session: sess, User: user}, nil
}

// SignIn verifies email and password and creates a new session.
// Unknown emails, missing credential accounts and wrong passwords all yield ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*AuthResult, error) {
	email := userdomain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, s.signInFailed(ctx, "", ErrInvalidCredentials)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.VerifyDummy(in.Password)
		return nil, s.signInFailed(ctx, "", ErrInvalidCredentials)
	}
	account, err := s.accounts.GetByUserAndProvider(ctx, user.ID, identitydomain.ProviderCredential)
	if err != nil {
		return nil, err
	}
	if account == nil || account.PasswordHash == "" {
		s.hasher.VerifyDummy(in.Password)
		return nil, s.signInFailed(ctx, user.ID, ErrInvalidCredentials)
	}
	if err := s.hasher.Verify(account.PasswordHash, in.Password); err != nil {
		return nil, s.signInFailed(ctx, user.ID, ErrInvalidCredentials)
	}
	if user.Banned {
		return nil, s.signInFailed(ctx, user.ID, ErrUserBanned)
	}
	sess, err := s.createSession(ctx, user, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, err
	}
	metrics.SignInsTotal.WithLabelValues("success").Inc()
	s.logAudit(ctx, user.ID, "sign_in", "")
	return &AuthResult{Session: sess, User: user}, nil
}

// SignOut deletes the session for token. Signing out an unknown session is not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	deleted, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		return err
	}
	if deleted {
		s.emit(ctx, telemetrydomain.EventSessionSignedOut, sess, sess.UserID)
		s.logAudit(ctx, sess.UserID, "sign_out", security.HashToken(token))
	}
	return nil
}

// GetSession returns the live session for token with its user, or (nil, nil) when there is none.
// Expired sessions are deleted on sight. Active sessions past their update age are extended.
func (s *AuthService) GetSession(ctx context.Context, token string) (*AuthResult, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil || sess == nil {
		return nil, err
	}
	now := s.now()
	if !sess.IsActive(now) {
		if _, err := s.sessions.DeleteByToken(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil || user == nil {
		return nil, err
	}
	if sess.NeedsRefresh(now, s.opts.ExpiresIn, s.opts.UpdateAge) {
		expiresAt := now.Add(s.opts.ExpiresIn)
		if err := s.sessions.Extend(ctx, token, expiresAt, now); err != nil {
			return nil, err
		}
		sess.ExpiresAt = expiresAt
		sess.UpdatedAt = now
	}
	return &AuthResult{Session: sess, User: user}, nil
}

// Resolve implements middleware.SessionResolver.
func (s *AuthService) Resolve(ctx context.Context, token string) (*middleware.Identity, error) {
	res, err := s.GetSession(ctx, token)
	if err != nil || res == nil {
		return nil, err
	}
	return &middleware.Identity{
		UserID:       res.User.ID,
		SessionID:    res.Session.ID,
		SessionToken: res.Session.Token,
		Role:         res.User.Role,
	}, nil
}

func (s *AuthService) createSession(ctx context.Context, user *userdomain.User, ip, userAgent string) (*sessiondomain.Session, error) {
	token, err := security.GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &sessiondomain.Session{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.opts.ExpiresIn),
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventSessionCreated, sess, user.ID)
	return sess, nil
}

func (s *AuthService) signInFailed(ctx context.Context, userID string, err error) error {
	metrics.SignInsTotal.WithLabelValues("failure").Inc()
	s.logAudit(ctx, userID, "sign_in_failed", "")
	return err
}

func (s *AuthService) emit(ctx context.Context, typ telemetrydomain.EventType, sess *sessiondomain.Session, actorID string) {
	if s.events == nil {
		return
	}
	telemetry.EmitAsync(s.events, ctx, &telemetrydomain.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		ActorID:   actorID,
		Source:    eventSource,
		CreatedAt: s.now(),
	})
}

func (s *AuthService) logAudit(ctx context.Context, userID, action, target string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, audit.Event{UserID: userID, Action: action, Resource: "auth", Target: target})
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}
