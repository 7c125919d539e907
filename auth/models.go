package auth

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account is the domain representation of a registered account.
// It mirrors the accounts table and should not include JSON annotations so it
// can be reused by different presentation layers. PasswordHash stays inside
// this package's callers and must never reach a response body.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains sign-up data supplied by callers. Role is accepted
// on the wire but self-service sign-up always results in RoleUser.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// LoginRequest contains sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
