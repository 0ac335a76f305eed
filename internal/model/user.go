package model

import "time"

// Roles a user can hold. The role gates which operations are permitted:
// clients post repair requests, repairers answer them with quotes, and
// admins can do both plus operate the back office.
const (
	RoleClient   = "client"
	RoleRepairer = "repairer"
	RoleAdmin    = "admin"
)

// Account statuses. A suspended user cannot log in even with correct
// credentials. Repairers start as pending_verification until their email
// is confirmed or an admin activates them.
const (
	StatusActive              = "active"
	StatusSuspended           = "suspended"
	StatusPendingVerification = "pending_verification"
)

// UserStatuses lists every valid account status, used to validate admin
// overrides.
var UserStatuses = []string{StatusActive, StatusSuspended, StatusPendingVerification}

// User represents a row in the `users` table. Optional profile columns are
// nullable in the schema; repositories map NULL to the empty string so the
// rest of the code never deals with sql.NullString.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique display name.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hash; the plaintext is never persisted.
//  Role         – client, repairer or admin.
//  Status       – active, suspended or pending_verification.
//  City, Bio, Phone, AvatarURL – optional profile fields.
//  CreatedAt    – registration timestamp.
//  VerifiedAt   – when the account was verified (nil until then).
type User struct {
	ID           uint64     // users.id
	Username     string     // users.username
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	Role         string     // users.role
	Status       string     // users.status
	City         string     // users.city (nullable)
	Bio          string     // users.bio (nullable)
	Phone        string     // users.phone (nullable)
	AvatarURL    string     // users.avatar_url (nullable)
	CreatedAt    time.Time  // users.created_at
	VerifiedAt   *time.Time // users.verified_at (nullable)
}

// IsRepairer reports whether the user may submit quotes. Admins are allowed
// to quote on behalf of the platform.
func (u User) IsRepairer() bool {
	return u.Role == RoleRepairer || u.Role == RoleAdmin
}

// ValidUserStatus reports whether s is one of the enumerated account statuses.
func ValidUserStatus(s string) bool {
	for _, v := range UserStatuses {
		if v == s {
			return true
		}
	}
	return false
}
