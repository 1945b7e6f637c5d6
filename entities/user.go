package entities

import (
	"time"

	"gorm.io/gorm"
)

// Discriminator values stored in users.type.
const (
	TypeUser  = "user"
	TypeAdmin = "admin"
)

// KnownTypes lists every discriminator a row may carry.
var KnownTypes = []string{TypeUser, TypeAdmin}

// IsKnownType reports whether t is a valid discriminator.
func IsKnownType(t string) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// User is the base row shared by every variant. user_name and chat_id are
// unique across the whole table, admins included.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserName  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"user_name"`
	ChatID    int64     `gorm:"uniqueIndex;not null" json:"chat_id"`
	Credits   int64     `gorm:"not null;default:0" json:"credits"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;<-:create" json:"created_at"`
	Type      string    `gorm:"type:varchar(32);not null;default:user;index" json:"type"`

	// Account is never loaded; it declares admins.id as a foreign key to
	// users.id so the store removes the extension with its base row.
	Account *AdminAccount `gorm:"foreignKey:ID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.Type == "" {
		u.Type = TypeUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

// UserCreate is the payload accepted when registering a user.
type UserCreate struct {
	UserName string `json:"user_name" form:"user_name" binding:"required,min=1,max=255"`
	ChatID   *int64 `json:"chat_id" form:"chat_id" binding:"required"`
}

// UserUpdate carries a partial update. Nil fields are left untouched.
type UserUpdate struct {
	UserName *string `json:"user_name,omitempty" binding:"omitempty,min=1,max=255"`
	Credits  *int64  `json:"credits,omitempty"`
	Type     *string `json:"type,omitempty" binding:"omitempty,oneof=user admin"`
}

// Values returns the column map of the supplied fields only.
func (u UserUpdate) Values() map[string]interface{} {
	values := make(map[string]interface{})
	if u.UserName != nil {
		values["user_name"] = *u.UserName
	}
	if u.Credits != nil {
		values["credits"] = *u.Credits
	}
	if u.Type != nil {
		values["type"] = *u.Type
	}
	return values
}

// UserResponse is the external representation returned by /api/user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	ChatID    int64     `json:"chat_id"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Type:      u.Type,
		ChatID:    u.ChatID,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
	}
}
