package request

import "otp-auth/internal/data/entity"

// UpdateProfileRequest only touches the fields that are present in the body.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	CSRF      string  `json:"_csrf,omitempty"`
}

func (r UpdateProfileRequest) ToEntity() entity.ProfileUpdate {
	return entity.ProfileUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

type UpdateEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	CSRF  string `json:"_csrf,omitempty"`
}
