package services

import (
	"errors"
	"log"
	"time"

	"dolgovnik/models"
	"dolgovnik/utils"

	"gorm.io/gorm"
)

// ReminderService предоставляет методы для напоминаний о просроченных долгах
type ReminderService struct {
	db          *gorm.DB
	email       *EmailService
	interval    time.Duration
	overdueDays int
}

// NewReminderService создает новый экземпляр ReminderService
func NewReminderService(db *gorm.DB, email *EmailService, interval time.Duration, overdueDays int) *ReminderService {
	return &ReminderService{
		db:          db,
		email:       email,
		interval:    interval,
		overdueDays: overdueDays,
	}
}

// Start запускает периодическую рассылку напоминаний
func (s *ReminderService) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.SendOverdueDigests(); err != nil {
					log.Printf("Ошибка при рассылке напоминаний: %v", err)
				}
			}
		}
	}()
}

// SendOverdueDigests отправляет каждому пользователю сводку просроченных долгов
func (s *ReminderService) SendOverdueDigests() error {
	cutoff := time.Now().AddDate(0, 0, -s.overdueDays)

	// Получаем все непогашенные долги старше порога
	var debts []models.Debt
	if err := s.db.Where("paid = ? AND initial_date <= ?", false, cutoff).Find(&debts).Error; err != nil {
		return errors.New("ошибка при получении просроченных долгов")
	}
	if len(debts) == 0 {
		return nil
	}

	// Группируем долги по владельцам через должников
	byUser := make(map[uint][]string)
	for _, debt := range debts {
		var debtor models.Debtor
		if err := s.db.First(&debtor, debt.DebtorID).Error; err != nil {
			continue
		}

		var user models.User
		if err := s.db.First(&user, debtor.UserID).Error; err != nil {
			continue
		}

		amount, err := utils.FormatCurrency(debt.RemainingAmount(), user.Currency)
		if err != nil {
			continue
		}

		line := debtor.Name + ": " + amount + " (" + debt.InitialDate.Format("02.01.2006") + ")"
		byUser[user.ID] = append(byUser[user.ID], line)
	}

	for userID, lines := range byUser {
		var user models.User
		if err := s.db.First(&user, userID).Error; err != nil {
			continue
		}
		if err := s.email.SendOverdueDigest(user.Email, lines); err != nil {
			log.Printf("Ошибка при отправке напоминания пользователю %d: %v", userID, err)
			continue
		}
		utils.GetMetrics().RecordDebtOperation("email", nil)
	}

	return nil
}
