// Package response はすべてのAPIレスポンスで共通のエンベロープを提供します。
package response

import "github.com/gin-gonic/gin"

// InternalErrorMessage は500応答で返す唯一のメッセージです。
// 内部の診断情報はクライアントに返さず、サーバーログにのみ出力します。
const InternalErrorMessage = "Internal server error"

// Envelope は {success, message, data} 形式のレスポンスボディです。
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success は成功レスポンスを書き込みます。dataがnilの場合は空オブジェクトを返します。
func Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, newEnvelope(true, message, data))
}

// Failure は失敗レスポンスを書き込みます。
func Failure(c *gin.Context, status int, message string) {
	c.JSON(status, newEnvelope(false, message, nil))
}

// Abort は失敗レスポンスを書き込み、後続のハンドラーを実行させません。
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, newEnvelope(false, message, nil))
}

func newEnvelope(success bool, message string, data any) Envelope {
	if data == nil {
		data = gin.H{}
	}
	return Envelope{Success: success, Message: message, Data: data}
}
