package models

import (
	"time"
)

// Debtor представляет должника — человека, который должен деньги пользователю
type Debtor struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"column:user_id;not null;index"`
	User      User      `gorm:"foreignKey:UserID;references:ID"`
	Name      string    `gorm:"column:name;not null;size:100"`
	Phone     string    `gorm:"column:phone;size:20"`
	Email     string    `gorm:"column:email;size:120"`
	Debts     []Debt    `gorm:"foreignKey:DebtorID"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (Debtor) TableName() string {
	return "debtors"
}

// TotalDebt возвращает сумму непогашенных долгов должника.
// Долг с частично оплаченной рассрочкой учитывается полной суммой,
// пока не погашен целиком.
func (d *Debtor) TotalDebt() float64 {
	var total float64
	for _, debt := range d.Debts {
		if !debt.Paid {
			total += debt.Amount
		}
	}
	return total
}

// TotalPaid возвращает сумму погашенных долгов должника
func (d *Debtor) TotalPaid() float64 {
	var total float64
	for _, debt := range d.Debts {
		if debt.Paid {
			total += debt.Amount
		}
	}
	return total
}
