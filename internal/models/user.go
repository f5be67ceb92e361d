package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleUser      Role = "user"
)

// PlaceholderImageURL is returned wherever a user has no profile image.
const PlaceholderImageURL = "https://cdn.eventmate.example/placeholder-avatar.png"

// User represents a platform user.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"-"`
	FullName string    `json:"full_name"`
	ImageURL string    `json:"image_url"`
	Bio      string    `json:"bio"`
	Role     Role      `json:"role"`
	// EventLimit overrides the global monthly creation limit; nil means
	// the configured default applies.
	EventLimit *int      `json:"event_limit,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	ImageURL  string    `json:"image_url"`
	Bio       string    `json:"bio"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		ImageURL:  u.ImageURL,
		Bio:       u.Bio,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
