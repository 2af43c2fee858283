package notification

import (
	"context"
	"fmt"
	"time"
)

const sendTimeout = 10 * time.Second

// Gateway composes the transactional messages the auth flows send and
// pushes them through the configured Sender under a bounded timeout.
type Gateway struct {
	sender Sender
}

func NewGateway(sender Sender) *Gateway {
	return &Gateway{sender: sender}
}

func (g *Gateway) send(ctx context.Context, to, subject, html string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return g.sender.Send(ctx, to, subject, html)
}

// SendVerificationCode delivers the registration OTP.
func (g *Gateway) SendVerificationCode(ctx context.Context, email, name, code string) error {
	subject := "Verify your ProjectHub email"
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>",
		name, code)
	return g.send(ctx, email, subject, html)
}

// SendPasswordResetCode delivers the password-reset OTP.
func (g *Gateway) SendPasswordResetCode(ctx context.Context, email, name, code string) error {
	subject := "Reset your ProjectHub password"
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your password reset code is <strong>%s</strong>. It expires in 10 minutes.</p><p>If you did not request this, you can ignore this email.</p>",
		name, code)
	return g.send(ctx, email, subject, html)
}

// SendWelcome delivers the post-verification welcome message. Callers treat
// failures as best-effort.
func (g *Gateway) SendWelcome(ctx context.Context, email, name string) error {
	subject := "Welcome to ProjectHub"
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your email is verified and your account is ready. Happy project planning!</p>",
		name)
	return g.send(ctx, email, subject, html)
}
