package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Role is the participation type chosen at registration.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleIntern    Role = "intern"

	// RoleAdmin is only ever carried by tokens; no User has it.
	RoleAdmin = "admin"
	// AdminSubject is the identity embedded in admin tokens.
	AdminSubject = "admin"
)

const (
	MaxNameLength     = 50
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// Valid reports whether r is one of the registrable roles.
func (r Role) Valid() bool {
	return r == RoleVolunteer || r == RoleIntern
}

// ValidEmail reports whether s is an acceptable email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is exactly ten digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// PasswordHasher turns plaintext passwords into one-way hashes.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// User is a registered volunteer or intern.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	RegisteredAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the projection of a User that is safe to hand to clients.
type PublicUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registeredAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUserInput carries the registration fields before hashing.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Phone    string
}

// Normalize trims every field and lowercases the email.
func (in NewUserInput) Normalize() NewUserInput {
	return NewUserInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    NormalizeEmail(in.Email),
		Password: in.Password,
		Role:     Role(strings.TrimSpace(string(in.Role))),
		Phone:    strings.TrimSpace(in.Phone),
	}
}

// NormalizeEmail is the canonical form used for storage and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateNewUser checks every field and reports all failures at once.
func ValidateNewUser(in NewUserInput) error {
	ve := &ValidationError{}

	switch {
	case in.Name == "":
		ve.Add("name", "Name is required")
	case utf8.RuneCountInString(in.Name) > MaxNameLength:
		ve.Add("name", fmt.Sprintf("Name cannot be more than %d characters", MaxNameLength))
	}

	switch {
	case in.Email == "":
		ve.Add("email", "Email is required")
	case !ValidEmail(in.Email):
		ve.Add("email", "Please provide a valid email")
	}

	switch {
	case in.Password == "":
		ve.Add("password", "Password is required")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		ve.Add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	case len(in.Password) > MaxPasswordBytes:
		ve.Add("password", fmt.Sprintf("Password cannot be longer than %d bytes", MaxPasswordBytes))
	}

	switch {
	case in.Role == "":
		ve.Add("role", "Role is required")
	case !in.Role.Valid():
		ve.Add("role", `Role must be either "volunteer" or "intern"`)
	}

	switch {
	case in.Phone == "":
		ve.Add("phone", "Phone number is required")
	case !ValidPhone(in.Phone):
		ve.Add("phone", "Please provide a valid 10-digit phone number")
	}

	if ve.Empty() {
		return nil
	}
	return ve
}

// NewUser validates the input and builds a persistable User with the
// password already hashed. There is no other way to obtain a User carrying
// credentials.
func NewUser(in NewUserInput, hasher PasswordHasher, now time.Time) (*User, error) {
	in = in.Normalize()
	if err := ValidateNewUser(in); err != nil {
		return nil, err
	}

	now = now.UTC()
	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		Phone:        in.Phone,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.SetPassword(in.Password, hasher); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored hash. It is the only path that writes
// PasswordHash.
func (u *User) SetPassword(plain string, hasher PasswordHasher) error {
	hash, err := hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return nil
}

// ComparePassword reports whether candidate matches the stored hash.
func (u *User) ComparePassword(candidate string, hasher PasswordHasher) bool {
	if u.PasswordHash == "" {
		return false
	}
	return hasher.Verify(candidate, u.PasswordHash)
}

// Public strips credentials from the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Phone:        u.Phone,
		RegisteredAt: u.RegisteredAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UserStatistics summarises a listing by role.
type UserStatistics struct {
	Total      int `json:"total"`
	Volunteers int `json:"volunteers"`
	Interns    int `json:"interns"`
}

// CountByRole computes statistics over exactly the given users.
func CountByRole(users []PublicUser) UserStatistics {
	stats := UserStatistics{Total: len(users)}
	for _, u := range users {
		switch u.Role {
		case RoleVolunteer:
			stats.Volunteers++
		case RoleIntern:
			stats.Interns++
		}
	}
	return stats
}
