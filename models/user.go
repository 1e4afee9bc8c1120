package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;unique;not null;size:80;index"`
	Email        string    `gorm:"column:email;unique;not null;size:120;index"`
	Password     string    `gorm:"column:password;not null;size:200"`
	Currency     string    `gorm:"column:currency;not null;size:3;default:'CLP'"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false"`
	ResetToken   string    `gorm:"column:reset_token;size:64"`
	ResetExpires *time.Time `gorm:"column:reset_expires"`
	Debtors      []Debtor  `gorm:"foreignKey:UserID"`
	CreatedAt    time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Username) < 3 || len(u.Username) > 80 {
		return errors.New("имя пользователя должно быть от 3 до 80 символов")
	}
	if len(u.Email) < 3 || len(u.Email) > 120 {
		return errors.New("email должен быть от 3 до 120 символов")
	}
	if u.Currency == "" {
		u.Currency = "CLP"
	}
	return nil
}
