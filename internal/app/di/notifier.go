package di

import (
	"time"

	authusecase "video_backend/internal/feature/auth/usecase"
	"video_backend/internal/platform/mailer"
	"video_backend/internal/shared/ratelimiter"
)

// NewRecoveryNotifier creates the password reset mail sender.
// If SMTP is not configured, it falls back to a notifier that only logs.
// SMTP delivery runs in the background so a slow mail server never holds the request.
func NewRecoveryNotifier(cfg mailer.Config) (authusecase.RecoveryNotifier, error) {
	if !cfg.Enabled() {
		return mailer.LogNotifier{}, nil
	}
	limiter := ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute)
	smtpNotifier, err := mailer.NewSMTPNotifier(cfg, limiter)
	if err != nil {
		return nil, err
	}
	return mailer.NewAsyncNotifier(smtpNotifier, mailer.DefaultSendTimeout), nil
}
