// models/user.go
package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the part of a marketplace account the notification pipeline needs.
type User struct {
	ID          string    `bson:"id" json:"id"`
	Username    string    `bson:"username" json:"username"`
	Email       string    `bson:"email" json:"email"`
	PhoneNumber string    `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Role        string    `bson:"role" json:"role"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName falls back to the email when no username is set.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
