package model

import "time"

// Role distinguishes the kinds of login-capable principals.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
	RoleVendor   Role = "vendor"
)

// User represents an employee or admin account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"-"`
}

// LoginRequest is the DTO for the first step of the two-factor login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

// LoginResponse acknowledges a successful password check. The email is
// masked; the full address never leaves the server at this stage.
type LoginResponse struct {
	RequiresOTP bool   `json:"requires_otp"`
	Message     string `json:"message"`
	Email       string `json:"email"`
}

// VerifyOTPRequest is the DTO for the second step of the two-factor login.
type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6"`
}
