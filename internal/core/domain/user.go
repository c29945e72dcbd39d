package domain

import "time"

// User is a stored account from which principals are issued.
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Type         PrincipalType `json:"type"`
	Superadmin   bool          `json:"superadmin"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Principal returns the principal a token issued for u represents.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Superadmin: u.Superadmin, Type: u.Type}
}
