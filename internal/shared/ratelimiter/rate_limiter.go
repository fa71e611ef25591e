package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、メール送信などの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiterは、interval あたり limit 回までに操作の頻度を制限します。
// 最初の limit 回はすぐに通り、以降は interval/limit ごとに1回ずつ補充されます。
// 複数のgoroutineから同時に呼び出せます。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
// limitが0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{limiter: rate.NewLimiter(every, limit)}
}

// Waitは枠が空くまで待機します。
// 待機中にctxがキャンセルされた場合、または期限までに枠が空かない場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Allow() {
		return nil
	}
	slog.Warn("rate limit reached", "limit", rl.limiter.Burst())
	return rl.limiter.Wait(ctx)
}
