package auth

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Handler exposes the auth service over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// fail maps a service error onto the envelope. Typed errors pass their
// status and message through; anything else is logged in full and reduced
// to a generic 500 so internals never leak.
func (h *Handler) fail(c echo.Context, err error) error {
	if authErr := AsError(err); authErr != nil {
		return c.JSON(authErr.Status, Response{Success: false, Message: authErr.Message})
	}
	h.logger.Error("internal error", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "Something went wrong"})
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &Error{http.StatusBadRequest, "Invalid request body"}
	}
	if err := c.Validate(req); err != nil {
		if _, isValidation := err.(validator.ValidationErrors); isValidation {
			return &Error{http.StatusBadRequest, "Validation failed: " + err.Error()}
		}
		return &Error{http.StatusBadRequest, "Invalid request body"}
	}
	return nil
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	result, err := h.service.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusCreated,
		"Registration successful. Check your email for the verification code.",
		result)
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	account, pair, err := h.service.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Email verified successfully", echo.Map{
		"user":         account,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *Handler) ResendOTP(c echo.Context) error {
	var req ResendOTPRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.service.ResendOTP(c.Request().Context(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Verification code sent", nil)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	account, pair, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Login successful", echo.Map{
		"user":         account,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	pair, err := h.service.RefreshAccessToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Token refreshed", echo.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.service.SendPasswordResetOTP(c.Request().Context(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Password reset code sent", nil)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.service.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Password has been reset. Please log in again.", nil)
}

// Me returns the account the gate attached to the request context.
func (h *Handler) Me(c echo.Context) error {
	account, okCast := c.Get("account").(*Account)
	if !okCast {
		return h.fail(c, ErrTokenRequired)
	}
	return ok(c, http.StatusOK, "", echo.Map{"user": account})
}

// DeleteAccount removes an account; reachable only through the admin gate.
func (h *Handler) DeleteAccount(c echo.Context) error {
	if err := h.service.DeleteAccount(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, "Account deleted", nil)
}
