package dto

// ResetRequestReq represents the body of /auth/send-email-for-change-password.
type ResetRequestReq struct {
	Email string `json:"email" binding:"required,email"`
}

// ChangePasswordReq represents the body of /auth/change-password/:token.
type ChangePasswordReq struct {
	Password string `json:"password" binding:"required"`
}
