package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRecord tracks the single active refresh session of an account:
// the hash of the last-issued refresh token plus a monotonic generation.
// Presenting any other token is either a forgery or reuse of a superseded
// token; both destroy the session.
type SessionRecord struct {
	TokenHash  string `json:"tokenHash"`
	Generation uint64 `json:"generation"`
}

// SessionStore keeps refresh sessions as expiring Redis records keyed by
// account id. The TTL mirrors the refresh-token lifetime, so an abandoned
// session disappears together with its token.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, issuer *TokenIssuer) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: issuer.RefreshTTL()}
}

func (s *SessionStore) key(accountID string) string {
	return "session:" + accountID
}

// Replace installs a new session, invalidating whatever token was active
// before. Login and OTP verification start the chain at generation 1.
func (s *SessionStore) Replace(ctx context.Context, accountID, refreshToken string, generation uint64) error {
	record := SessionRecord{
		TokenHash:  hashSecret(refreshToken),
		Generation: generation,
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(accountID), encoded, s.ttl).Err()
}

// Get returns the active session, or nil when none exists.
func (s *SessionStore) Get(ctx context.Context, accountID string) (*SessionRecord, error) {
	data, err := s.rdb.Get(ctx, s.key(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete ends the session; any outstanding refresh token stops working.
func (s *SessionStore) Delete(ctx context.Context, accountID string) error {
	return s.rdb.Del(ctx, s.key(accountID)).Err()
}

// Matches compares the presented refresh token against the stored hash in
// constant time.
func (r *SessionRecord) Matches(refreshToken string) bool {
	return subtle.ConstantTimeCompare([]byte(r.TokenHash), []byte(hashSecret(refreshToken))) == 1
}
