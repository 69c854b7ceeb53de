package model

import (
	"time"

	"gorm.io/gorm"
)

type Account struct {
	ID uint64 `gorm:"primaryKey"`

	UserName string `gorm:"column:user_name;type:varchar(50);not null;unique"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	IsActive  bool `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the database table name.
func (Account) TableName() string {
	return "account"
}
