package dto

import "time"

// UserRequest is the body of POST /users and PUT /users/:id. Secret is
// required on create and ignored on update.
type UserRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email"`
	Username string `json:"username" validate:"required"`
	Secret   string `json:"secret"`
	Role     string `json:"role" validate:"required"`
}

// SecretRequest is the body of POST /users/:id/secret.
type SecretRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// UserResponse is the public view of an account. The secret hash never leaves the service.
type UserResponse struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
