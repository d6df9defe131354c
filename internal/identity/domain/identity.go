package domain

import "time"

// Account links a user to a sign-in provider. For email/password sign-in the provider is
// ProviderCredential, AccountID is the user id and PasswordHash holds the bcrypt hash.
type Account struct {
	ID           string
	UserID       string
	Provider     Provider
	AccountID    string
	PasswordHash string // empty for non-credential providers
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Provider string

const ProviderCredential Provider = "credential"
