package models

import (
	"time"
)

// Типы действий в истории долга
const (
	ActionCreated         = "created"
	ActionEdited          = "edited"
	ActionInstallmentPaid = "installment_paid"
	ActionMarkedPaid      = "marked_paid"
	ActionDeleted         = "deleted"
)

// DebtHistory представляет запись в истории изменений долга.
// Записи только добавляются и удаляются каскадно вместе с долгом.
type DebtHistory struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	DebtID      uint      `gorm:"column:debt_id;not null;index"`
	UserID      uint      `gorm:"column:user_id;not null"`
	ActionType  string    `gorm:"column:action_type;not null;size:50"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP;index"`
}

func (DebtHistory) TableName() string {
	return "debt_history"
}
