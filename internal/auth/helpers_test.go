package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ProjectHub/internal/config"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer(&config.TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

// memoryAccountStore is an in-memory credential store enforcing the same
// uniqueness constraints as the Mongo indexes.
type memoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: make(map[string]*Account)}
}

func clone(a *Account) *Account {
	if a == nil {
		return nil
	}
	copied := *a
	return &copied
}

func (m *memoryAccountStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, nil
}

func (m *memoryAccountStore) FindByStudentCode(_ context.Context, code string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.StudentCode == code {
			return clone(a), nil
		}
	}
	return nil, nil
}

func (m *memoryAccountStore) FindByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.accounts[id]), nil
}

func (m *memoryAccountStore) Create(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == account.Email || a.StudentCode == account.StudentCode {
			return ErrConflict
		}
	}
	m.accounts[account.ID.Hex()] = clone(account)
	return nil
}

func (m *memoryAccountStore) Update(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[account.ID.Hex()]; !exists {
		return ErrAccountNotFound
	}
	m.accounts[account.ID.Hex()] = clone(account)
	return nil
}

func (m *memoryAccountStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id.Hex())
	return nil
}

// fakeNotifier records outbound codes and can simulate delivery failures.
type fakeNotifier struct {
	mu               sync.Mutex
	failVerification bool
	failReset        bool
	failWelcome      bool
	verificationCode string
	resetCode        string
	welcomes         int
}

var errDeliveryDown = errors.New("smtp is on fire")

func (f *fakeNotifier) SendVerificationCode(_ context.Context, _, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failVerification {
		return errDeliveryDown
	}
	f.verificationCode = code
	return nil
}

func (f *fakeNotifier) SendPasswordResetCode(_ context.Context, _, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReset {
		return errDeliveryDown
	}
	f.resetCode = code
	return nil
}

func (f *fakeNotifier) SendWelcome(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWelcome {
		return errDeliveryDown
	}
	f.welcomes++
	return nil
}

func (f *fakeNotifier) lastVerificationCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verificationCode
}

func (f *fakeNotifier) lastResetCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetCode
}

type testEnv struct {
	service  *Service
	accounts *memoryAccountStore
	notifier *fakeNotifier
	otps     *VerificationStore
	sessions *SessionStore
	tokens   *TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rdb := newTestRedis(t)
	issuer := newTestIssuer()
	accounts := newMemoryAccountStore()
	notifier := &fakeNotifier{}
	otps := NewVerificationStore(rdb, &config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 5})
	sessions := NewSessionStore(rdb, issuer)
	service := NewService(accounts, otps, sessions, issuer, notifier, zap.NewNop())
	return &testEnv{
		service:  service,
		accounts: accounts,
		notifier: notifier,
		otps:     otps,
		sessions: sessions,
		tokens:   issuer,
	}
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		StudentCode:     "SE150001",
		Name:            "Alice Nguyen",
		Email:           "a@x.com",
		Password:        "abcdef",
		ConfirmPassword: "abcdef",
	}
}

// registerAndVerify walks an account through registration and OTP
// verification, returning the account and its first token pair.
func registerAndVerify(t *testing.T, env *testEnv) (*Account, *TokenPair) {
	t.Helper()
	ctx := context.Background()
	result, err := env.service.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	account, pair, err := env.service.VerifyOTP(ctx, result.Email, env.notifier.lastVerificationCode())
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	return account, pair
}
