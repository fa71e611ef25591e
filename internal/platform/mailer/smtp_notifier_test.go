package mailer

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"video_backend/internal/feature/auth/domain/entity"
)

type stubLimiter struct {
	calls int
	err   error
}

func (s *stubLimiter) Wait(context.Context) error {
	s.calls++
	return s.err
}

// stubSender は送信されたメッセージを記録します。
type stubSender struct {
	sent []*mail.Msg
	err  error
}

func (s *stubSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, messages...)
	return nil
}

var testConfig = Config{
	Host:     "smtp.example.com",
	Port:     "587",
	Username: "noreply@example.com",
	Password: "secret",
	BaseURL:  "https://videos.example.com",
}

func newTestNotifier(t *testing.T, limiter *stubLimiter, sender *stubSender) *SMTPNotifier {
	t.Helper()
	n, err := NewSMTPNotifier(testConfig, limiter)
	require.NoError(t, err)
	n.client = sender
	return n
}

func TestSMTPNotifier_SendRecoveryMessage(t *testing.T) {
	limiter := &stubLimiter{}
	sender := &stubSender{}
	n := newTestNotifier(t, limiter, sender)
	user := &entity.User{ID: 1, Email: "a@x.com", RecoveryToken: "abc123"}

	require.NoError(t, n.SendRecoveryMessage(context.Background(), user))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, rcpts)
	assert.Equal(t, []string{"Change Password"}, msg.GetGenHeader(mail.HeaderSubject))
	assert.Equal(t, 1, limiter.calls)
}

func TestSMTPNotifier_RenderBody(t *testing.T) {
	n := newTestNotifier(t, &stubLimiter{}, &stubSender{})

	body, err := n.renderBody(&entity.User{Email: "a@x.com", RecoveryToken: "abc123"})
	require.NoError(t, err)
	assert.Contains(t, body, `href="https://videos.example.com/change-password/abc123"`)

	body, err = n.renderBody(&entity.User{Email: "<script>@x.com", RecoveryToken: "t"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestSMTPNotifier_Errors(t *testing.T) {
	user := &entity.User{Email: "a@x.com", RecoveryToken: "t"}

	t.Run("send failure is wrapped", func(t *testing.T) {
		n := newTestNotifier(t, &stubLimiter{}, &stubSender{err: errors.New("535 auth failed")})
		err := n.SendRecoveryMessage(context.Background(), user)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "535 auth failed")
	})

	t.Run("limiter cancellation stops sending", func(t *testing.T) {
		sender := &stubSender{}
		n := newTestNotifier(t, &stubLimiter{err: context.Canceled}, sender)
		err := n.SendRecoveryMessage(context.Background(), user)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, sender.sent)
	})

	t.Run("empty recipient", func(t *testing.T) {
		sender := &stubSender{}
		n := newTestNotifier(t, &stubLimiter{}, sender)
		assert.Error(t, n.SendRecoveryMessage(context.Background(), &entity.User{}))
		assert.Empty(t, sender.sent)
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := testConfig
		cfg.Port = "smtp"
		_, err := NewSMTPNotifier(cfg, nil)
		assert.Error(t, err)
	})
}

// startSilentSMTPServer は接続を受け付けるだけで挨拶を返さないサーバーを起動します。
func startSilentSMTPServer(t *testing.T) (host string, port string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), strconv.Itoa(addr.Port)
}

func TestSMTPNotifier_SilentServerHonoursDeadline(t *testing.T) {
	host, port := startSilentSMTPServer(t)
	cfg := testConfig
	cfg.Host, cfg.Port = host, port
	n, err := NewSMTPNotifier(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = n.SendRecoveryMessage(ctx, &entity.User{Email: "a@x.com", RecoveryToken: "t"})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestNewDialFunc_ImplicitTLSHandshakeHonoursDeadline(t *testing.T) {
	host, port := startSilentSMTPServer(t)
	dial := newDialFunc(host, true)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := dial(ctx, "tcp", net.JoinHostPort(host, port))

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewDialFunc_SetsConnDeadline(t *testing.T) {
	host, port := startSilentSMTPServer(t)
	dial := newDialFunc(host, false)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	conn, err := dial(ctx, "tcp", net.JoinHostPort(host, port))
	require.NoError(t, err)
	defer conn.Close()

	// サーバーは何も送らないので、期限で読み込みが終わる
	start := time.Now()
	_, err = conn.Read(make([]byte, 1))
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.Less(t, time.Since(start), time.Second)
}

func TestSMTPNotifier_ChangePasswordLink(t *testing.T) {
	n := newTestNotifier(t, &stubLimiter{}, &stubSender{})
	assert.Equal(t, "https://videos.example.com/change-password/a%2Fb", n.ChangePasswordLink("a/b"))
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.SendRecoveryMessage(context.Background(), &entity.User{Email: "a@x.com"}))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("SMTP_HOST", "")
		t.Setenv("SMTP_PORT", "")
		t.Setenv("EMAIL", "")
		t.Setenv("EMAIL_PASSWORD", "")
		t.Setenv("APP_BASE_URL", "")
		t.Setenv("MAIL_RATE_LIMIT", "")

		cfg := LoadConfigFromEnv()
		assert.Equal(t, "587", cfg.Port)
		assert.Equal(t, "http://localhost:5173", cfg.BaseURL, "reset links must open the front end")
		assert.Equal(t, 30, cfg.RateLimit)
		assert.False(t, cfg.Enabled())
	})

	t.Run("configured", func(t *testing.T) {
		t.Setenv("SMTP_HOST", "smtp.gmail.com")
		t.Setenv("SMTP_PORT", "465")
		t.Setenv("EMAIL", "me@gmail.com")
		t.Setenv("EMAIL_PASSWORD", "app-password")
		t.Setenv("APP_BASE_URL", "https://app.example.com/")
		t.Setenv("MAIL_RATE_LIMIT", "5")

		cfg := LoadConfigFromEnv()
		assert.True(t, cfg.Enabled())
		assert.Equal(t, "465", cfg.Port)
		assert.Equal(t, "https://app.example.com", cfg.BaseURL)
		assert.Equal(t, 5, cfg.RateLimit)
	})
}
