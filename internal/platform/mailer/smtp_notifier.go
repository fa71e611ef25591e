package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"video_backend/internal/feature/auth/domain/entity"
	"video_backend/internal/shared/ratelimiter"
)

const (
	changePasswordSubject = "Change Password"
	smtpTimeout           = 15 * time.Second
	smtpsPort             = 465
)

var changePasswordTemplate = template.Must(template.New("change_password").Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Change your password</h2>
  <p>We received a request to change the password for {{.Email}}.</p>
  <p><a href="{{.Link}}">Click here to set a new password</a></p>
  <p>If you did not request this, you can ignore this email.</p>
</body>
</html>
`))

// mailSender は*mail.Clientのうち送信に使うメソッドです。テストで差し替えます。
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier は復旧トークン入りのリンクをHTMLメールで送信します。
// 接続から送信完了までctxの期限に従います。
type SMTPNotifier struct {
	from    string
	baseURL string
	limiter ratelimiter.RateLimiterInterface
	client  mailSender
}

// NewSMTPNotifier はSMTPNotifierの新しいインスタンスを生成します。
// 465番ポートは暗黙のTLS、それ以外はSTARTTLS必須で接続します。
func NewSMTPNotifier(cfg Config, limiter ratelimiter.RateLimiterInterface) (*SMTPNotifier, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("mailer: invalid SMTP port %q: %w", cfg.Port, err)
	}
	implicitTLS := port == smtpsPort
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(smtpTimeout),
		mail.WithDialContextFunc(newDialFunc(cfg.Host, implicitTLS)),
	}
	if implicitTLS {
		// TLSはダイヤル時に張るのでSTARTTLSは行わない
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: create SMTP client: %w", err)
	}
	return &SMTPNotifier{
		from:    cfg.Username,
		baseURL: cfg.BaseURL,
		limiter: limiter,
		client:  client,
	}, nil
}

// newDialFunc は接続にctxの期限を設定するダイヤル関数を返します。
// 挨拶を返さないサーバーに対しても読み書きが期限で打ち切られます。
func newDialFunc(host string, implicitTLS bool) mail.DialContextFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		if !implicitTLS {
			return conn, nil
		}
		tlsConn := tls.Client(conn, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}
}

// SendRecoveryMessage はユーザーの現在の復旧トークンを含むメールを送信します。
func (n *SMTPNotifier) SendRecoveryMessage(ctx context.Context, user *entity.User) error {
	if user == nil || user.Email == "" {
		return errors.New("mailer: recipient is empty")
	}
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("mailer: wait for rate limit: %w", err)
		}
	}

	msg, err := n.buildMessage(user)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	slog.Info("change password email sent", "email", user.Email)
	return nil
}

// ChangePasswordLink は再設定画面へのリンクを返します。
func (n *SMTPNotifier) ChangePasswordLink(token string) string {
	return n.baseURL + "/change-password/" + url.PathEscape(token)
}

func (n *SMTPNotifier) renderBody(user *entity.User) (string, error) {
	var body bytes.Buffer
	err := changePasswordTemplate.Execute(&body, struct {
		Email string
		Link  string
	}{Email: user.Email, Link: n.ChangePasswordLink(user.RecoveryToken)})
	if err != nil {
		return "", fmt.Errorf("mailer: render template: %w", err)
	}
	return body.String(), nil
}

func (n *SMTPNotifier) buildMessage(user *entity.User) (*mail.Msg, error) {
	body, err := n.renderBody(user)
	if err != nil {
		return nil, err
	}
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("mailer: invalid sender: %w", err)
	}
	if err := msg.To(user.Email); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	msg.Subject(changePasswordSubject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

// LogNotifier はSMTP未設定時に使用します。宛先のみをログに出力します。
type LogNotifier struct{}

// SendRecoveryMessage は送信せずにログを出力します。
func (LogNotifier) SendRecoveryMessage(_ context.Context, user *entity.User) error {
	// トークンはログに出さない
	slog.Warn("SMTP is not configured; change password email skipped", "email", user.Email)
	return nil
}
