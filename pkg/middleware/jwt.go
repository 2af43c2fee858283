package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"ProjectHub/internal/auth"
)

func reject(c echo.Context, err *auth.Error) error {
	return c.JSON(err.Status, auth.Response{Success: false, Message: err.Message})
}

// RequireAuth is the gate in front of protected routes: it resolves the
// bearer access token to a live account and attaches it to the request
// context. Missing token, failed verification and vanished accounts are
// three distinct outcomes (401, 403, 404).
func RequireAuth(tokens *auth.TokenIssuer, accounts auth.AccountStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return reject(c, auth.ErrTokenRequired)
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return reject(c, auth.ErrTokenRequired)
			}
			tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			claims, err := tokens.ParseAccessToken(tokenString)
			if err != nil {
				return reject(c, auth.ErrInvalidToken)
			}

			account, err := accounts.FindByID(c.Request().Context(), claims.Subject)
			if err != nil {
				return reject(c, auth.ErrInvalidToken)
			}
			if account == nil {
				return reject(c, auth.ErrAccountNotFound)
			}

			c.Set("account", account)
			return next(c)
		}
	}
}
