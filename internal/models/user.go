// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package models

import (
	"time"
)

// Role is the authorization role of a user.
type Role string

const (
	// RoleNormal is a regular account that may only edit itself.
	RoleNormal Role = "normal"

	// RoleAdmin may edit any profile.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r == RoleNormal || r == RoleAdmin
}

// Recognized gender values.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User is a persisted user record.
type User struct {
	ID          int64     `json:"id"`
	UserAccount string    `json:"user_account"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	UserStatus  int       `json:"user_status"`
	Role        Role      `json:"role"`
	PlanetCode  string    `json:"planet_code"`
	Tags        string    `json:"tags"`
	Profile     string    `json:"profile"`
	CreateTime  time.Time `json:"create_time"`
	IsDelete    bool      `json:"is_delete"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// SafeUser is the client-facing projection of a User.
type SafeUser struct {
	ID          int64     `json:"id"`
	UserAccount string    `json:"user_account"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	UserStatus  int       `json:"user_status"`
	Role        Role      `json:"role"`
	PlanetCode  string    `json:"planet_code,omitempty"`
	Tags        string    `json:"tags"`
	Profile     string    `json:"profile,omitempty"`
	CreateTime  time.Time `json:"create_time"`
}

// Safe returns the client-facing projection of u.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:          u.ID,
		UserAccount: u.UserAccount,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		Gender:      u.Gender,
		Phone:       u.Phone,
		Email:       u.Email,
		UserStatus:  u.UserStatus,
		Role:        u.Role,
		PlanetCode:  u.PlanetCode,
		Tags:        u.Tags,
		Profile:     u.Profile,
		CreateTime:  u.CreateTime,
	}
}

// SafeUsers projects a slice of users.
func SafeUsers(users []User) []SafeUser {
	out := make([]SafeUser, len(users))
	for i := range users {
		out[i] = users[i].Safe()
	}
	return out
}

// UpdateRequest is a profile update submitted by a client.
// ID is kept as a string so malformed identifiers can be rejected with a
// validation error instead of a decode failure.
type UpdateRequest struct {
	ID        string  `json:"id" validate:"required,snowflake_id"`
	Username  *string `json:"username,omitempty" validate:"omitempty,max=256"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,max=1024"`
	Gender    *string `json:"gender,omitempty" validate:"omitempty,gender"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email     *string `json:"email,omitempty" validate:"omitempty,max=256"`
	Tags      *string `json:"tags,omitempty" validate:"omitempty,max=4096"`
	Profile   *string `json:"profile,omitempty" validate:"omitempty,max=1024"`
	IsDelete  *bool   `json:"is_delete,omitempty"`
}

// HasMutableField reports whether any of the display name, phone, email,
// or tags fields carries a non-empty value.
func (r *UpdateRequest) HasMutableField() bool {
	for _, f := range []*string{r.Username, r.Phone, r.Email, r.Tags} {
		if f != nil && *f != "" {
			return true
		}
	}
	return false
}

// UserPatch is a partial update applied by the user store. Nil fields are not written.
type UserPatch struct {
	ID        int64
	Username  *string
	AvatarURL *string
	Gender    *string
	Phone     *string
	Email     *string
	Tags      *string
	Profile   *string
}

// Empty reports whether the patch sets no fields.
func (p *UserPatch) Empty() bool {
	return p.Username == nil && p.AvatarURL == nil && p.Gender == nil &&
		p.Phone == nil && p.Email == nil && p.Tags == nil && p.Profile == nil
}

// Patch converts an accepted request into a store patch for id.
// Empty strings are treated as absent so an update never blanks a field.
func (r *UpdateRequest) Patch(id int64) UserPatch {
	return UserPatch{
		ID:        id,
		Username:  nonEmpty(r.Username),
		AvatarURL: nonEmpty(r.AvatarURL),
		Gender:    nonEmpty(r.Gender),
		Phone:     nonEmpty(r.Phone),
		Email:     nonEmpty(r.Email),
		Tags:      nonEmpty(r.Tags),
		Profile:   nonEmpty(r.Profile),
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
