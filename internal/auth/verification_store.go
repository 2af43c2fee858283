package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ProjectHub/internal/config"
)

// OTPPurpose namespaces pending codes so a registration code can never
// satisfy a password reset.
type OTPPurpose string

const (
	PurposeVerifyEmail   OTPPurpose = "verify"
	PurposeResetPassword OTPPurpose = "reset"
)

// Records stay in Redis for a grace window past their expiry so a late
// attempt reports "expired" instead of "no pending code".
const expiredRetention = time.Hour

type otpRecord struct {
	CodeHash  string `json:"codeHash"`
	ExpiresAt int64  `json:"expiresAt"`
	Attempts  int    `json:"attempts"`
}

// VerificationStore keeps at most one pending OTP per account per purpose
// as an expiring Redis record. Writing a new code invalidates the old one.
type VerificationStore struct {
	rdb         *redis.Client
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewVerificationStore(rdb *redis.Client, cfg *config.OTPConfig) *VerificationStore {
	return &VerificationStore{
		rdb:         rdb,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
	}
}

func (s *VerificationStore) key(purpose OTPPurpose, accountID string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, accountID)
}

// TTL reports the configured code lifetime.
func (s *VerificationStore) TTL() time.Duration { return s.ttl }

// Put stores a new pending code, replacing any previous one.
func (s *VerificationStore) Put(ctx context.Context, purpose OTPPurpose, accountID, code string) error {
	record := otpRecord{
		CodeHash:  hashSecret(code),
		ExpiresAt: s.now().Add(s.ttl).Unix(),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(purpose, accountID), encoded, s.ttl+expiredRetention).Err()
}

// Delete drops the pending code, if any.
func (s *VerificationStore) Delete(ctx context.Context, purpose OTPPurpose, accountID string) error {
	return s.rdb.Del(ctx, s.key(purpose, accountID)).Err()
}

// Consume validates the presented code and removes the record on success,
// as one atomic check-and-clear so a verified code cannot be replayed.
// Mismatches burn an attempt; exhausting the budget burns the code.
func (s *VerificationStore) Consume(ctx context.Context, purpose OTPPurpose, accountID, code string) error {
	const maxRetries = 4
	key := s.key(purpose, accountID)
	providedHash := hashSecret(code)

	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			var record otpRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}

			if s.now().Unix() > record.ExpiresAt {
				if err := txDel(ctx, tx, key); err != nil {
					return err
				}
				return ErrOTPExpired
			}

			if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(providedHash)) != 1 {
				record.Attempts++
				if record.Attempts >= s.maxAttempts {
					if err := txDel(ctx, tx, key); err != nil {
						return err
					}
					return ErrOTPAttempts
				}
				updated, err := json.Marshal(record)
				if err != nil {
					return err
				}
				remaining := time.Until(time.Unix(record.ExpiresAt, 0)) + expiredRetention
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, remaining)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrOTPMismatch
			}

			return txDel(ctx, tx, key)
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, redis.Nil) {
			return ErrNoPendingOTP
		}
		return err
	}
	return ErrNoPendingOTP
}

func txDel(ctx context.Context, tx *redis.Tx, key string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		return nil
	})
	return err
}
