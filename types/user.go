package types

import "time"

// User represents an account in the system.
// It contains identity, profile, and audit metadata.
type User struct {
	// ID is the opaque, store-assigned identifier of the user.
	ID string `json:"_id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address and login key.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// Federated accounts hold the hash of their derived secret.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Federated marks accounts created through an external identity provider.
	// Such accounts have no user-chosen password to reset.
	Federated bool `json:"federated" db:"federated"`

	// Provider names the identity provider of a federated account.
	Provider string `json:"provider,omitempty" db:"provider"`

	// Image is the base64-encoded profile picture.
	Image string `json:"imageBuffer" db:"image"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"date" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the public view of a user returned to its owner.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"imageBuffer"`
}

// Profile returns the owner-visible subset of the user.
func (u User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email, Image: u.Image}
}
