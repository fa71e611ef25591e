// Package mailer はパスワード再設定メールの送信を提供します。
package mailer

import (
	"os"
	"strconv"
	"strings"
)

const (
	defaultSMTPPort  = "587"
	defaultBaseURL   = "http://localhost:5173"
	defaultRateLimit = 30
)

// Config はSMTP送信の設定です。
type Config struct {
	Host      string
	Port      string
	Username  string // 送信元アドレスを兼ねる
	Password  string
	BaseURL   string // 再設定画面を持つフロントエンドのURL
	RateLimit int    // 1分あたりの送信上限
}

// Enabled はSMTP送信に必要な項目が揃っているかを返します。
func (c Config) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// LoadConfigFromEnv は環境変数からConfigを読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Host:      os.Getenv("SMTP_HOST"),
		Port:      os.Getenv("SMTP_PORT"),
		Username:  os.Getenv("EMAIL"),
		Password:  os.Getenv("EMAIL_PASSWORD"),
		BaseURL:   strings.TrimRight(os.Getenv("APP_BASE_URL"), "/"),
		RateLimit: defaultRateLimit,
	}
	if cfg.Port == "" {
		cfg.Port = defaultSMTPPort
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if v, err := strconv.Atoi(os.Getenv("MAIL_RATE_LIMIT")); err == nil && v > 0 {
		cfg.RateLimit = v
	}
	return cfg
}
