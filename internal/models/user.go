package models

import "time"

type User struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" bson:"email" json:"email"`
	Role        string    `gorm:"size:20;not null;default:'user'" bson:"role" json:"role"`
	DisplayName string    `gorm:"size:255" bson:"displayName" json:"displayName"`
	PhotoURL    string    `gorm:"size:1000" bson:"photoURL" json:"photoURL"`
	Bio         string    `gorm:"type:text" bson:"bio" json:"bio"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

const (
	RoleUser    = "user"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
	Bio         *string
}

func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.PhotoURL == nil && u.Bio == nil
}

func (u ProfileUpdate) ApplyTo(user *User) {
	if u.DisplayName != nil {
		user.DisplayName = *u.DisplayName
	}
	if u.PhotoURL != nil {
		user.PhotoURL = *u.PhotoURL
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
}
