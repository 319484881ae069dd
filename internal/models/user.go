// Package models defines the core domain models for the application.
// These models represent the documents stored in MongoDB for users, games,
// blog posts, redirect rules, analytics events, and site configuration.
//
// All models include JSON and BSON struct tags for serialization and
// document mapping. Sensitive fields are marked with `json:"-"` to prevent
// accidental exposure in API responses.
package models

import "time"

// Role identifies the permission level of a user account.
type Role string

const (
	// RoleSuperAdmin is the single account created by the one-time setup
	// route. It may manage accounts of every role including other admins.
	RoleSuperAdmin Role = "super_admin"

	// RoleAdmin may access the back office and manage role=user accounts.
	RoleAdmin Role = "admin"

	// RoleUser has no back-office access.
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	// StatusActive allows the account to log in.
	StatusActive UserStatus = "active"

	// StatusBlocked rejects login attempts without revealing whether the
	// password was correct.
	StatusBlocked UserStatus = "blocked"
)

// PendingChange is a short-lived sub-record holding a requested email or
// name change awaiting confirmation by an emailed verification code.
// It lives on the user document and is discarded once confirmed, rejected,
// or expired.
type PendingChange struct {
	Field     string    `json:"field" bson:"field"`           // "email" or "name"
	Value     string    `json:"value" bson:"value"`           // Requested new value
	Code      string    `json:"-" bson:"code"`                // Verification code (never exposed)
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"` // Hard TTL for the request
}

// Expired reports whether the pending change is past its TTL at the given
// instant.
func (p *PendingChange) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// User represents an account in the back office.
//
// The password hash is excluded from JSON serialization. The PendingChange
// field is nil unless a two-step email/name change is in flight.
//
// JSON example:
//
//	{
//	  "id": "550e8400-e29b-41d4-a716-446655440000",
//	  "name": "Jane Admin",
//	  "email": "jane@example.com",
//	  "role": "admin",
//	  "status": "active",
//	  "created_at": "2024-01-15T10:30:00Z",
//	  "last_login": "2024-01-20T14:45:00Z"
//	}
type User struct {
	ID            string         `json:"id" bson:"_id"`                                            // Unique user identifier (UUID string)
	Name          string         `json:"name" bson:"name"`                                         // Display name
	Email         string         `json:"email" bson:"email"`                                       // Login email (unique)
	PasswordHash  string         `json:"-" bson:"password_hash"`                                   // bcrypt hash (NEVER exposed)
	Role          Role           `json:"role" bson:"role"`                                         // Permission level
	Status        UserStatus     `json:"status" bson:"status"`                                     // active or blocked
	PendingChange *PendingChange `json:"pending_change,omitempty" bson:"pending_change,omitempty"` // In-flight change request
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`                             // Account creation timestamp
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`                             // Last mutation timestamp
	LastLogin     *time.Time     `json:"last_login,omitempty" bson:"last_login,omitempty"`         // Most recent login (nullable)
}
