package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"video_backend/internal/feature/auth/domain/entity"
)

// DefaultSendTimeout は1通の送信（レート制限の待機を含む）に許す時間です。
const DefaultSendTimeout = 2 * time.Minute

// RecoverySender は復旧メールを実際に送る通知先です。
type RecoverySender interface {
	SendRecoveryMessage(ctx context.Context, user *entity.User) error
}

// AsyncNotifier は送信をバックグラウンドで行い、呼び出し元をすぐに返します。
// 送信はリクエストのキャンセルから切り離され、timeoutで打ち切られます。失敗はログにのみ残ります。
type AsyncNotifier struct {
	inner   RecoverySender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncNotifier はinnerをバックグラウンド送信でラップします。
func NewAsyncNotifier(inner RecoverySender, timeout time.Duration) *AsyncNotifier {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &AsyncNotifier{inner: inner, timeout: timeout}
}

// SendRecoveryMessage は送信を開始して常にnilを返します。
func (n *AsyncNotifier) SendRecoveryMessage(ctx context.Context, user *entity.User) error {
	// 呼び出し元がuserを書き換えても影響しないようコピーを渡す
	recipient := *user
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.inner.SendRecoveryMessage(sendCtx, &recipient); err != nil {
			slog.Error("failed to send change password email", "error", err, "user_id", recipient.ID)
		}
	}()
	return nil
}

// Wait は実行中の送信がすべて終わるまで待ちます。シャットダウン時とテストで使います。
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}
