package passwordreset

import (
	"encoding/json"
	"io"
)

const MaxBodyBytes = 16 << 10

const (
	MessageInvalidToken     = "Invalid token."
	MessageExpiredToken     = "Token has expired."
	MessageInvalidOrExpired = "Invalid or expired token."
	MessagePasswordMismatch = "Passwords do not match."
	MessageResetLinkSent    = "If an account with that email exists, a password reset link has been sent."
	MessageTokenValid       = "Token is valid."
	MessagePasswordReset    = "Password has been reset successfully."
)

// DecodeJSON reads at most MaxBodyBytes and rejects unknown fields.
func DecodeJSON(r io.Reader, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r, MaxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
