package request

// The "@" check on Email happens in the OTP service so the failure carries the
// same message whether the field is missing or malformed.
type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}
