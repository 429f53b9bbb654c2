package models

import "time"

// User mirrors the externally issued identity. Rows are synced lazily on
// first authenticated access; the session provider remains the authority.
// Maps to: users table
type User struct {
	UserID     string    `db:"user_id" json:"userId"`
	Email      string    `db:"email" json:"email"`
	Verified   bool      `db:"verified" json:"verified"`
	Firstname  *string   `db:"firstname" json:"firstname,omitempty"`
	Lastname   *string   `db:"lastname" json:"lastname,omitempty"`
	IsAdmin    bool      `db:"is_admin" json:"isAdmin"`
	ThirdParty *string   `db:"third_party" json:"thirdParty,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
