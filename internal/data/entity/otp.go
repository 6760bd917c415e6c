package entity

import "time"

// OTP is the pending one-time code stored on a user row.
type OTP struct {
	Email     string    `db:"email"`
	Code      string    `db:"otp"`
	ExpiresAt time.Time `db:"otp_expiry"`
}

func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
