// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/MatheusAFD/mono-repo-auth/internal/config"
	"github.com/MatheusAFD/mono-repo-auth/internal/db"
	identitydomain "github.com/MatheusAFD/mono-repo-auth/internal/identity/domain"
	identityrepo "github.com/MatheusAFD/mono-repo-auth/internal/identity/repository"
	"github.com/MatheusAFD/mono-repo-auth/internal/security"
	sessiondomain "github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
	sessionrepo "github.com/MatheusAFD/mono-repo-auth/internal/session/repository"
	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
	userrepo "github.com/MatheusAFD/mono-repo-auth/internal/user/repository"
)

const (
	adminEmail  = "admin@example.com"
	portalEmail = "portal@example.com"
	devPassword = "password123"
)

type seedUser struct {
	name      string
	email     string
	role      userdomain.Role
	userAgent string
	ip        string
}

var seedUsers = []seedUser{
	{name: "Admin User", email: adminEmail, role: userdomain.RoleBackoffice, userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15", ip: "127.0.0.1"},
	{name: "Portal User", email: portalEmail, role: userdomain.RolePortal, userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", ip: "10.0.0.24"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	accounts := identityrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	passwordHash, err := security.NewHasher(cfg.BcryptCost).Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	for _, su := range seedUsers {
		u := &userdomain.User{
			ID:            uuid.New().String(),
			Name:          su.name,
			Email:         su.email,
			EmailVerified: true,
			Role:          su.role,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", su.email, err)
		}
		if err := accounts.Create(ctx, &identitydomain.Account{
			ID:           uuid.New().String(),
			UserID:       u.ID,
			Provider:     identitydomain.ProviderCredential,
			AccountID:    u.ID,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			log.Fatalf("create account %s: %v", su.email, err)
		}
		token, err := security.GenerateSessionToken()
		if err != nil {
			log.Fatalf("session token: %v", err)
		}
		if err := sessions.Create(ctx, &sessiondomain.Session{
			ID:        uuid.New().String(),
			Token:     token,
			UserID:    u.ID,
			ExpiresAt: now.Add(cfg.SessionTTL()),
			IPAddress: su.ip,
			UserAgent: su.userAgent,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			log.Fatalf("create session %s: %v", su.email, err)
		}
		log.Printf("seeded %s (%s)", su.email, su.role)
	}
	log.Printf("Seed complete. Sign in with %s or %s, password %q.", adminEmail, portalEmail, devPassword)
}
