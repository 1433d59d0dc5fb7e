// Package routes provides shared API route constants used by the Paylith
// backend services and their clients to prevent path mismatches.
package routes

// PublicSegment is the reserved path segment denoting endpoints reachable
// without a bearer credential. The request pipeline skips credential
// attachment for any path containing it.
const PublicSegment = "opn"

// IAM service routes.
const (
	// AuthToken is the OAuth2-style token endpoint (password and
	// refresh_token grants, form-encoded body, Basic client auth).
	AuthToken = "/iam/opn/v1/token" // #nosec G101 -- route path, not a credential

	// AuthTokenMobile exchanges a mobile number + PIN for a token pair.
	AuthTokenMobile = "/iam/opn/v1/token/mobile" // #nosec G101 -- route path, not a credential

	// AuthLogout invalidates the current session server-side.
	AuthLogout = "/iam/cmn/v1/logout"

	// UserProfile returns the current authenticated user's profile.
	UserProfile = "/iam/cmn/v1/users/profile"

	// OTPVerify submits the second-factor one-time password during login.
	OTPVerify = "/iam/opn/v1/otp/verify"

	// OTPResend requests a fresh one-time password for the given user.
	OTPResend = "/iam/opn/v1/otp/resend"

	// ForgotPassword starts the password-reset flow for a username.
	ForgotPassword = "/iam/opn/v1/forgot-password"

	// ResetPassword completes the password-reset flow with an OTP.
	ResetPassword = "/iam/opn/v1/reset-password"

	// UserIDValidate checks whether a username is still available.
	UserIDValidate = "/iam/opn/v1/userid/validate"

	// Users is the user-management collection endpoint. POSTing here with
	// the first-admin registration marker bootstraps the initial
	// privileged account before any credential exists.
	Users = "/iam/cmn/v1/users"

	// UsersRegister is the public self-registration endpoint.
	UsersRegister = "/iam/opn/v1/users/register"
)
