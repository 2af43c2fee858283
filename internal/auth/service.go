package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// opTimeout bounds every store or network call made by a single service
// operation, so nothing blocks indefinitely.
const opTimeout = 15 * time.Second

var studentCodePattern = regexp.MustCompile(`^SE\d{6}$`)

// Notifier is the abstract notification gateway; delivery failure is
// observable and the registration path reacts to it.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
	SendPasswordResetCode(ctx context.Context, email, name, code string) error
	SendWelcome(ctx context.Context, email, name string) error
}

// Service orchestrates registration, OTP verification, login, refresh and
// password reset over the credential store, the Redis-backed OTP/session
// stores, the token issuer and the notification gateway.
type Service struct {
	accounts AccountStore
	otps     *VerificationStore
	sessions *SessionStore
	tokens   *TokenIssuer
	notifier Notifier
	logger   *zap.Logger
}

func NewService(
	accounts AccountStore,
	otps *VerificationStore,
	sessions *SessionStore,
	tokens *TokenIssuer,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		otps:     otps,
		sessions: sessions,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and sends the verification OTP.
// If the email cannot be delivered the account is rolled back, otherwise
// the unique-email constraint would permanently block a retry for an
// address its owner never got a code for.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if !studentCodePattern.MatchString(req.StudentCode) {
		return nil, ErrInvalidStudentCode
	}
	email := normalizeEmail(req.Email)

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.accounts.FindByStudentCode(ctx, req.StudentCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrStudentCodeTaken
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &Account{
		ID:            primitive.NewObjectID(),
		StudentCode:   req.StudentCode,
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          RoleUser,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	code, err := GenerateOTP()
	if err != nil {
		s.rollbackRegistration(ctx, account)
		return nil, err
	}
	if err := s.otps.Put(ctx, PurposeVerifyEmail, account.ID.Hex(), code); err != nil {
		s.rollbackRegistration(ctx, account)
		return nil, err
	}

	if err := s.notifier.SendVerificationCode(ctx, account.Email, account.Name, code); err != nil {
		s.logger.Error("verification email delivery failed, rolling back registration",
			zap.String("email", account.Email), zap.Error(err))
		s.rollbackRegistration(ctx, account)
		return nil, ErrDeliveryFailure
	}

	return &RegisterResult{Email: account.Email, UserID: account.ID.Hex()}, nil
}

// rollbackRegistration removes a just-created account and its pending OTP.
// It runs detached from request cancellation: an aborted request must not
// strand an account its owner can never verify or re-register.
func (s *Service) rollbackRegistration(ctx context.Context, account *Account) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
	defer cancel()

	if err := s.otps.Delete(ctx, PurposeVerifyEmail, account.ID.Hex()); err != nil {
		s.logger.Error("registration rollback: OTP cleanup failed", zap.Error(err))
	}
	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		s.logger.Error("registration rollback: account delete failed",
			zap.String("accountId", account.ID.Hex()), zap.Error(err))
	}
}

// VerifyOTP confirms the registration code, marks the email verified and
// starts the first session.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Account, *TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrAccountNotFound
	}
	if account.EmailVerified {
		return nil, nil, ErrAlreadyVerified
	}

	if err := s.otps.Consume(ctx, PurposeVerifyEmail, account.ID.Hex(), code); err != nil {
		return nil, nil, err
	}

	account.EmailVerified = true
	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, nil, err
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	// Best effort only; a failed welcome email never fails verification.
	if err := s.notifier.SendWelcome(ctx, account.Email, account.Name); err != nil {
		s.logger.Warn("welcome email delivery failed", zap.String("email", account.Email), zap.Error(err))
	}

	return account, pair, nil
}

// ResendOTP issues a fresh registration code, invalidating the previous
// one. The account is past the fragile creation window, so a delivery
// failure here surfaces as an error without deleting anything.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.otps.Put(ctx, PurposeVerifyEmail, account.ID.Hex(), code); err != nil {
		return err
	}
	if err := s.notifier.SendVerificationCode(ctx, account.Email, account.Name, code); err != nil {
		s.logger.Error("verification email resend failed", zap.String("email", account.Email), zap.Error(err))
		return ErrDeliveryFailure
	}
	return nil
}

// Login authenticates by email and password. The unverified-email check
// runs strictly before the password comparison so credential validity is
// never revealed for an unverified account.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, *TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !account.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}
	if !CheckPasswordHash(password, account.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// RefreshAccessToken rotates the session: a matching refresh token yields
// a new pair at the next generation; a superseded or forged token destroys
// the session, since reuse signals compromise.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	account, err := s.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidRefreshToken
	}

	record, err := s.sessions.Get(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidRefreshToken
	}
	if !record.Matches(refreshToken) {
		s.logger.Warn("superseded refresh token presented, ending session",
			zap.String("accountId", claims.Subject),
			zap.Uint64("generation", record.Generation))
		if err := s.sessions.Delete(ctx, claims.Subject); err != nil {
			s.logger.Error("session teardown failed", zap.Error(err))
		}
		return nil, ErrInvalidRefreshToken
	}

	return s.issuePair(ctx, account, record.Generation+1)
}

// SendPasswordResetOTP stores and delivers a reset code. Reset presupposes
// a completed registration.
func (s *Service) SendPasswordResetOTP(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if !account.EmailVerified {
		return ErrEmailNotVerified
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.otps.Put(ctx, PurposeResetPassword, account.ID.Hex(), code); err != nil {
		return err
	}
	if err := s.notifier.SendPasswordResetCode(ctx, account.Email, account.Name, code); err != nil {
		s.logger.Error("password reset email delivery failed", zap.String("email", account.Email), zap.Error(err))
		return ErrDeliveryFailure
	}
	return nil
}

// ResetPassword consumes the reset code, replaces the password hash and
// ends the active session, forcing a fresh login everywhere.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	if err := s.otps.Consume(ctx, PurposeResetPassword, account.ID.Hex(), code); err != nil {
		return err
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}

	return s.sessions.Delete(ctx, account.ID.Hex())
}

// DeleteAccount removes an account and all of its transient state. Admin
// only; enforced at the gate.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	for _, purpose := range []OTPPurpose{PurposeVerifyEmail, PurposeResetPassword} {
		if err := s.otps.Delete(ctx, purpose, id); err != nil {
			return err
		}
	}
	return s.accounts.Delete(ctx, account.ID)
}

// startSession begins a fresh refresh chain at generation 1, replacing any
// session the account had. Single active session per account.
func (s *Service) startSession(ctx context.Context, account *Account) (*TokenPair, error) {
	return s.issuePair(ctx, account, 1)
}

func (s *Service) issuePair(ctx context.Context, account *Account, generation uint64) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(account.ID, generation)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Replace(ctx, account.ID.Hex(), refreshToken, generation); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.tokens.AccessTTLSeconds(),
	}, nil
}
