package handler

import "time"

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type registerResponse struct {
	AccountID          string `json:"account_id"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccountID          string    `json:"account_id"`
	Username           string    `json:"username"`
	Role               string    `json:"role"`
	MustChangePassword bool      `json:"must_change_password"`
	LastLoginAt        time.Time `json:"last_login_at"`
	AccessToken        string    `json:"access_token"`
	RefreshToken       string    `json:"refresh_token"`
}

type refreshRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type availabilityResponse struct {
	UsernameTaken *bool `json:"username_taken,omitempty"`
	EmailTaken    *bool `json:"email_taken,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}
