// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered user in the system.
// It holds the login credentials, the rotating recovery token and the
// usage counters maintained by the video catalog.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey" json:"_id"`

	// Email is the user's email address used for authentication.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`

	// Password is the bcrypt hash of the user's password.
	// It is never serialized.
	Password string `gorm:"size:255;not null" json:"-"`

	// RecoveryToken authorizes exactly one password change.
	// It is always present and is replaced every time it is consumed.
	RecoveryToken string `gorm:"uniqueIndex;size:64;not null" json:"-"`

	// Name is an optional display name.
	Name string `gorm:"size:255" json:"name"`

	UploadCount   int `gorm:"not null;default:0" json:"uploadCount"`
	DownloadCount int `gorm:"not null;default:0" json:"downloadCount"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}
