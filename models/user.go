package models

import "time"

// User — a registered farmer account. Fields and zones are keyed by the
// user's id as ownerId.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	FarmName     string    `bson:"farmName,omitempty" json:"farmName,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
