package entities

// AdminAccount is the extension row of an admin. Its primary key is the id of
// the users row it extends; plain users have no AdminAccount. The pair is
// only ever written and deleted together inside one transaction.
type AdminAccount struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false"`
	HashedPassword string `gorm:"not null"`
	IsActive       bool   `gorm:"not null;default:true"`
}

func (AdminAccount) TableName() string { return "admins" }

// Admin is the joined view of a users row and its admins extension.
type Admin struct {
	User
	HashedPassword string `json:"-"`
	IsActive       bool   `json:"is_active"`
}

// AdminCreate carries the plaintext password; hashing happens in the
// repository.
type AdminCreate struct {
	ChatID   int64  `json:"chat_id" form:"chat_id" yaml:"chat_id" binding:"required"`
	UserName string `json:"user_name" form:"user_name" yaml:"user_name" binding:"required,min=3,max=50"`
	Password string `json:"password" form:"password" yaml:"password" binding:"required,min=8"`
}

// AdminUpdate is a partial update; Password, when set, is plaintext.
type AdminUpdate struct {
	ChatID   *int64  `json:"chat_id,omitempty"`
	UserName *string `json:"user_name,omitempty" binding:"omitempty,min=3,max=50"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=8"`
	IsActive *bool   `json:"is_active,omitempty"`
	Credits  *int64  `json:"credits,omitempty"`
}

// AdminResponse never carries the password hash.
type AdminResponse struct {
	UserResponse
	UserName string `json:"user_name"`
	IsActive bool   `json:"is_active"`
}

func (a Admin) Response() AdminResponse {
	return AdminResponse{
		UserResponse: a.User.Response(),
		UserName:     a.UserName,
		IsActive:     a.IsActive,
	}
}
