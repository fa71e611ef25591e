package dto

// SignupReq は/auth/sign-upエンドポイントのリクエストボディを表します。
// 長さの下限は設けず、必須とメール形式のみを検証します。
type SignupReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
