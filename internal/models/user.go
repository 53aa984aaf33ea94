package models

import "time"

// User represents an account. GoogleID is nil for password accounts.
type User struct {
	ID        string    `json:"_id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	GoogleID  *string   `json:"googleId,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Password  string    `json:"-" gorm:"type:varchar(255)"` // bcrypt hash
	Avatar    string    `json:"avatar,omitempty"`
	Mobile    string    `json:"mobile,omitempty" validate:"omitempty,max=20"`
	Role      string    `json:"role" gorm:"type:varchar(20);default:user"`
	Commits   []Commit  `json:"-" gorm:"foreignKey:UserID"`
	CommitIDs []string  `json:"commits" gorm:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultRole is assigned to accounts created without an explicit role.
const DefaultRole = "user"
