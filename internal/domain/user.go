package domain

import "time"

// User is a service desk operator account.
type User struct {
	ID         int64
	FullName   string
	Email      string
	Username   string
	SecretHash string
	Role       Role
	CreatedAt  time.Time
}
