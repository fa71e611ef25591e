package http

import (
	"net"
	"net/http"
	"time"
)

const (
	// S3は応答ヘッダーを数秒以内に返す。これを超えるのは詰まった接続とみなす
	responseHeaderTimeout = 30 * time.Second
	// アップロードとダウンロードが同じバケットに並行するため、アイドル接続を多めに残す
	maxIdleConnsPerHost = 32
)

// NewHTTPClient はオブジェクトストレージ呼び出し用のHTTPクライアントを作成します。
//
// 動画本体の転送には数分かかることがあるため、timeout（Client.Timeout）は呼び出し元で長めに指定します。
// その長いtimeoutだけでは応答しないエンドポイントに接続を数分間握られるので、
// 本体サイズに関係なく応答ヘッダーまでの待ち時間を別に制限します。
// http.DefaultClientにはどちらのタイムアウトもないため使用しないこと。
func NewHTTPClient(timeout time.Duration) *http.Client {
	return newHTTPClient(timeout, responseHeaderTimeout)
}

func newHTTPClient(timeout, headerTimeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
