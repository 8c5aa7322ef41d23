package model

import "time"

// CodePurpose scopes a one-time code to the flow that issued it.
type CodePurpose string

const (
	PurposeOTP           CodePurpose = "otp"
	PurposeResetPassword CodePurpose = "reset_password"
)

// VerificationCode is a single-use code sent to an email address or phone
// number. Only the SHA-256 hash of the code is persisted.
type VerificationCode struct {
	ID          int64       `json:"id" db:"id"`
	Destination string      `json:"destination" db:"destination"`
	Purpose     CodePurpose `json:"purpose" db:"purpose"`
	CodeHash    string      `json:"-" db:"code_hash"`
	ExpiresAt   time.Time   `json:"expiresAt" db:"expires_at"`
	ConsumedAt  *time.Time  `json:"consumedAt,omitempty" db:"consumed_at"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}
