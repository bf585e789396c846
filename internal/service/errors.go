package service

import "errors"

// Validation, conflict and authorization errors. Their messages are shown to
// end users as-is.
var (
	ErrRequiredFields              = errors.New("required fields are missing")
	ErrInvalidOrganizationName     = errors.New("organization name may only contain letters, digits, underscores or Hangul")
	ErrOrganizationNameTaken       = errors.New("organization name is already in use")
	ErrOrganizationPhoneTaken      = errors.New("phone number is already registered to an organization")
	ErrIdentityPhoneTaken          = errors.New("phone number is already registered")
	ErrEmailTaken                  = errors.New("email is already in use")
	ErrInvalidEmail                = errors.New("email address is malformed")
	ErrInvalidPhone                = errors.New("phone number is malformed")
	ErrUnknownIndustry             = errors.New("unknown industry")
	ErrInvalidIdentity             = errors.New("invalid identity")
	ErrInvalidRole                 = errors.New("invalid role")
	ErrUnauthorized                = errors.New("unauthorized")
	ErrInviterOrganizationNotFound = errors.New("could not find organization for inviter")
	ErrInvalidCredentials          = errors.New("invalid credentials")
	ErrInvalidRefresh              = errors.New("invalid refresh token")
	ErrInvitationInvalid           = errors.New("invitation is invalid or has expired")
)

// AuthError is returned by the auth provider. Code is a stable machine
// readable reason such as "email_exists"; it may be empty.
type AuthError struct {
	Message string
	Code    string
}

func (e *AuthError) Error() string { return e.Message }

// Auth error codes.
const (
	CodeEmailExists  = "email_exists"
	CodeWeakPassword = "weak_password"
	CodeUserNotFound = "user_not_found"
)
