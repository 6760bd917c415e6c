package entity

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is one row per email. OTP and OTPExpiry are both nil or both set.
type User struct {
	Base
	Email      string     `db:"email"`
	Role       UserRole   `db:"role"`
	IsVerified bool       `db:"is_verified"`
	OTP        *string    `db:"otp"`
	OTPExpiry  *time.Time `db:"otp_expiry"`
	FirstName  *string    `db:"first_name"`
	LastName   *string    `db:"last_name"`
	Phone      *string    `db:"phone"`
}

// ProfileUpdate lists the optional self-service profile fields; nil means untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil
}

// UserStats backs the admin dashboard.
type UserStats struct {
	TotalUsers    int64
	VerifiedUsers int64
	AdminUsers    int64
	RecentUsers   []*User
}
