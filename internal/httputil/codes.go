package httputil

// Machine-readable error codes returned alongside error messages.
// Clients branch on these instead of parsing message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeMissingFields      = "MISSING_FIELDS"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	CodeInvalidSignupToken = "INVALID_SIGNUP_TOKEN"
	CodeOTPNotFound        = "OTP_NOT_FOUND"
	CodeOTPMismatch        = "OTP_MISMATCH"
	CodeInvalidGoogleToken = "INVALID_GOOGLE_TOKEN"

	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"

	CodeNoteNotFound = "NOTE_NOT_FOUND"
	CodeNotNoteOwner = "NOT_NOTE_OWNER"

	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeCooldownActive  = "COOLDOWN_ACTIVE"
	CodeInternalError   = "INTERNAL_ERROR"
)
