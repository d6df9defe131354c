package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MatheusAFD/mono-repo-auth/internal/security"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
)

const (
	cacheKeyPrefix = "session:"
	// genTTL keeps an eviction generation alive long enough to outlast any lookup that read the
	// database before the eviction.
	genTTL = time.Hour
)

// storeScript sets the entry only if the generation observed before the database read is unchanged.
// KEYS: entry, generation. ARGV: observed generation, payload, ttl in ms.
var storeScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// evictScript bumps the generation and deletes the entry for each (entry, generation) key pair.
// ARGV: generation ttl in ms.
var evictScript = redis.NewScript(`
for i = 1, #KEYS, 2 do
  redis.call('INCR', KEYS[i+1])
  redis.call('PEXPIRE', KEYS[i+1], ARGV[1])
  redis.call('DEL', KEYS[i])
end
return 1
`)

// CachedRepository is a read-through Redis cache in front of another Repository.
// Only GetByToken is served from Redis. Every write that can invalidate a lookup evicts the key and
// bumps its generation, so a lookup that read the database before the write cannot store it again.
// A nil client disables caching and every call goes straight to next.
type CachedRepository struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewCachedRepository wraps next with a Redis cache. Entries live for at most ttl and never past the session's expiry.
func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{next: next, client: client, ttl: ttl, logger: logger, now: time.Now}
}

type cachedSession struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// cacheKey and genKey share a hash tag so both scripts touch a single cluster slot.
func cacheKey(token string) string {
	return cacheKeyPrefix + "{" + security.HashToken(token) + "}"
}

func genKey(token string) string {
	return cacheKey(token) + ":gen"
}

func (c *CachedRepository) Create(ctx context.Context, s *domain.Session) error {
	return c.next.Create(ctx, s)
}

func (c *CachedRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if c.client == nil {
		return c.next.GetByToken(ctx, token)
	}
	raw, err := c.client.Get(ctx, cacheKey(token)).Bytes()
	switch {
	case err == nil:
		var cs cachedSession
		if err := json.Unmarshal(raw, &cs); err == nil {
			s := domain.Session(cs)
			return &s, nil
		}
		c.logger.WarnContext(ctx, "session cache: dropping undecodable entry")
		c.evict(ctx, token)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "session cache: get failed", "error", err)
	}

	gen, genErr := c.client.Get(ctx, genKey(token)).Result()
	switch {
	case errors.Is(genErr, redis.Nil):
		gen, genErr = "0", nil
	case genErr != nil:
		c.logger.WarnContext(ctx, "session cache: generation read failed", "error", genErr)
	}

	s, err := c.next.GetByToken(ctx, token)
	if err != nil || s == nil {
		return s, err
	}
	if genErr == nil {
		c.store(ctx, s, gen)
	}
	return s, nil
}

// GetByTokenNoCache reads next directly and evicts any cached entry for a session that no longer exists.
func (c *CachedRepository) GetByTokenNoCache(ctx context.Context, token string) (*domain.Session, error) {
	s, err := c.next.GetByToken(ctx, token)
	if err == nil && s == nil {
		c.evict(ctx, token)
	}
	return s, err
}

func (c *CachedRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Session, error) {
	return c.next.ListActive(ctx, now)
}

func (c *CachedRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	deleted, err := c.next.DeleteByToken(ctx, token)
	if err == nil && deleted {
		c.evict(ctx, token)
	}
	return deleted, err
}

// DeleteByTokenIfOwnerRole evicts even when nothing matched: the caller re-reads after a miss
// and must not see a cached row the database no longer agrees with.
func (c *CachedRepository) DeleteByTokenIfOwnerRole(ctx context.Context, token, role string) (bool, error) {
	deleted, err := c.next.DeleteByTokenIfOwnerRole(ctx, token, role)
	if err == nil {
		c.evict(ctx, token)
	}
	return deleted, err
}

func (c *CachedRepository) Extend(ctx context.Context, token string, expiresAt, updatedAt time.Time) error {
	if err := c.next.Extend(ctx, token, expiresAt, updatedAt); err != nil {
		return err
	}
	c.evict(ctx, token)
	return nil
}

func (c *CachedRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	tokens, err := c.next.DeleteExpired(ctx, now)
	if err != nil || c.client == nil || len(tokens) == 0 {
		return tokens, err
	}
	for _, t := range tokens {
		c.evict(ctx, t)
	}
	return tokens, nil
}

func (c *CachedRepository) store(ctx context.Context, s *domain.Session, gen string) {
	ttl := s.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	if c.ttl > 0 && c.ttl < ttl {
		ttl = c.ttl
	}
	payload, err := json.Marshal(cachedSession(*s))
	if err != nil {
		return
	}
	keys := []string{cacheKey(s.Token), genKey(s.Token)}
	if err := storeScript.Run(ctx, c.client, keys, gen, payload, ttl.Milliseconds()).Err(); err != nil {
		c.logger.WarnContext(ctx, "session cache: set failed", "error", err)
	}
}

func (c *CachedRepository) evict(ctx context.Context, token string) {
	if c.client == nil {
		return
	}
	keys := []string{cacheKey(token), genKey(token)}
	if err := evictScript.Run(ctx, c.client, keys, genTTL.Milliseconds()).Err(); err != nil {
		c.logger.WarnContext(ctx, "session cache: evict failed", "error", err)
	}
}
