package account

import (
	"time"

	"github.com/google/uuid"
)

// User is an account of any role. PasswordHash and RefreshTokenHash never
// leave the server.
type User struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Role             string    `db:"role" json:"role"`
	Name             string    `db:"name" json:"name"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	AvatarURL        *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Speciality       *string   `db:"speciality" json:"speciality,omitempty"`
	Address          *string   `db:"address" json:"address,omitempty"`
	RefreshTokenHash *string   `db:"refresh_token_hash" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Session is what a successful login or refresh returns to the client.
type Session struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
