package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Username     string      `bson:"username" json:"username"`
	Email        string      `bson:"email" json:"email"`
	DisplayName  string      `bson:"displayName" json:"displayName"`
	PasswordHash string      `bson:"passwordHash" json:"-"`
	Avatar       AvatarRef   `bson:"avatar" json:"avatar"`
	RefreshToken string      `bson:"refreshToken,omitempty" json:"-"`
	ResetToken   *ResetToken `bson:"resetToken,omitempty" json:"-"`
	Timestamps   Timestamps  `bson:"timestamps" json:"timestamps"`
}

// AvatarRef points into the external media storage.
type AvatarRef struct {
	URL string `bson:"url" json:"url"`
	Key string `bson:"key" json:"key"`
}

// ResetToken holds the one-way digest of a pending password reset
// token. Hash and ExpiresAt are always set and cleared together.
type ResetToken struct {
	Hash      string    `bson:"hash" json:"-"`
	ExpiresAt time.Time `bson:"expiresAt" json:"-"`
}

type Timestamps struct {
	CreatedAt          int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt          int64 `bson:"updatedAt" json:"updatedAt"`
	LastLogin          int64 `bson:"lastLogin" json:"lastLogin"`
	LastPasswordChange int64 `bson:"lastPasswordChange" json:"lastPasswordChange"`
}

// HasPendingReset reports whether a reset token is stored and not yet expired.
func (u User) HasPendingReset() bool {
	return u.ResetToken != nil && time.Now().Before(u.ResetToken.ExpiresAt)
}
