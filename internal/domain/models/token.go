package models

import "time"

// RefreshToken is the persisted record behind a signed refresh token.
// Its ID travels inside the token as the jti claim.
type RefreshToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
