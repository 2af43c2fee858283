package routes

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ProjectHub/internal/auth"
	"ProjectHub/internal/config"
	"ProjectHub/internal/notification"
	"ProjectHub/pkg/middleware"
)

// Modules wires the whole application graph.
var Modules = fx.Module("projecthub",
	fx.Provide(
		config.NewServerConfig,
		config.NewMongoConfig,
		config.NewRedisConfig,
		config.NewTokenConfig,
		config.NewOTPConfig,
		config.NewResendConfig,
		config.NewLogger,
		config.NewMongoDatabase,
		config.NewRedisClient,
		notification.NewSender,
		notification.NewGateway,
		func(g *notification.Gateway) auth.Notifier { return g },
		auth.NewAccountStore,
		auth.NewTokenIssuer,
		auth.NewVerificationStore,
		auth.NewSessionStore,
		auth.NewService,
		auth.NewHandler,
		middleware.NewEnforcer,
		NewEchoServer,
	),
	fx.Invoke(EnsureIndexes),
	fx.Invoke(RegisterRoutes),
)

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// NewEchoServer builds the echo instance and binds its lifetime to the fx
// lifecycle.
func NewEchoServer(lc fx.Lifecycle, cfg *config.ServerConfig, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting HTTP server", zap.String("port", cfg.Port))
			go func() {
				if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
					logger.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down HTTP server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

// EnsureIndexes creates the uniqueness constraints the registration flow
// relies on, before the server starts accepting requests.
func EnsureIndexes(lc fx.Lifecycle, db *mongo.Database, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := config.EnsureAccountIndexes(ctx, db.Collection("accounts")); err != nil {
				return err
			}
			logger.Info("unique indexes on accounts ensured")
			return nil
		},
	})
}

// RegisterRoutes binds the auth surface. Everything lives under /auth;
// protected routes pass the bearer gate and the role check.
func RegisterRoutes(
	e *echo.Echo,
	handler *auth.Handler,
	tokens *auth.TokenIssuer,
	accounts auth.AccountStore,
	enforcer *casbin.Enforcer,
	logger *zap.Logger,
) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	g := e.Group("/auth")
	g.POST("/register", handler.Register)
	g.POST("/verify-otp", handler.VerifyOTP)
	g.POST("/resend-otp", handler.ResendOTP)
	g.POST("/login", handler.Login)
	g.POST("/refresh", handler.Refresh)
	g.POST("/forgot-password", handler.ForgotPassword)
	g.POST("/reset-password", handler.ResetPassword)

	protected := g.Group("", middleware.RequireAuth(tokens, accounts), middleware.Authorize(enforcer, logger))
	protected.GET("/me", handler.Me)
	protected.DELETE("/accounts/:id", handler.DeleteAccount)
}
