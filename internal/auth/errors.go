package auth

import (
	"errors"
	"net/http"
)

// Error carries the HTTP status and a safe, user-facing message. Anything
// that is not an *Error reaching the HTTP layer is logged server-side and
// reduced to a generic 500.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidStudentCode = &Error{http.StatusBadRequest, "Student code must be SE followed by six digits"}
	ErrEmailTaken         = &Error{http.StatusConflict, "Email already registered"}
	ErrStudentCodeTaken   = &Error{http.StatusConflict, "Student code already registered"}
	ErrConflict           = &Error{http.StatusConflict, "Email or student code already registered"}

	ErrAccountNotFound = &Error{http.StatusNotFound, "Account not found"}
	ErrAlreadyVerified = &Error{http.StatusBadRequest, "Email is already verified"}
	ErrNoPendingOTP    = &Error{http.StatusBadRequest, "No pending verification code for this account"}
	ErrOTPExpired      = &Error{http.StatusBadRequest, "OTP code has expired"}
	ErrOTPMismatch     = &Error{http.StatusBadRequest, "Invalid OTP code"}
	ErrOTPAttempts     = &Error{http.StatusBadRequest, "Too many incorrect attempts, request a new code"}

	// Unknown email and wrong password share one message so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials  = &Error{http.StatusUnauthorized, "Invalid email or password"}
	ErrEmailNotVerified    = &Error{http.StatusForbidden, "Please verify your email before logging in"}
	ErrInvalidRefreshToken = &Error{http.StatusForbidden, "Invalid or expired refresh token"}

	ErrTokenRequired = &Error{http.StatusUnauthorized, "Authentication token required"}
	ErrInvalidToken  = &Error{http.StatusForbidden, "Invalid or expired token"}
	ErrForbidden     = &Error{http.StatusForbidden, "Insufficient permissions"}

	ErrDeliveryFailure = &Error{http.StatusInternalServerError, "Failed to send verification email, please try again"}
)

// AsError unwraps err into the typed form, or nil if it is not one.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
