package services

import (
	"errors"
	"time"

	"dolgovnik/models"

	"gorm.io/gorm"
)

// HistoryFilter определяет фильтры выборки журнала операций
type HistoryFilter struct {
	DebtorID   uint
	ActionType string
	DateFrom   string // формат 2006-01-02
	DateTo     string // формат 2006-01-02, включительно
}

// HistoryEntry представляет запись журнала вместе с контекстом долга
type HistoryEntry struct {
	ID          uint      `json:"id"`
	DebtID      uint      `json:"debt_id"`
	DebtorID    uint      `json:"debtor_id"`
	DebtorName  string    `json:"debtor_name"`
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryService предоставляет методы для чтения журнала операций
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService создает новый экземпляр HistoryService
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// ListForUser возвращает журнал пользователя с фильтрами, новые записи первыми
func (s *HistoryService) ListForUser(userID uint, filter HistoryFilter) ([]HistoryEntry, error) {
	query := s.db.Table("debt_history").
		Select("debt_history.id, debt_history.debt_id, debts.debtor_id, debtors.name AS debtor_name, debt_history.action_type, debt_history.description, debt_history.created_at").
		Joins("JOIN debts ON debts.id = debt_history.debt_id").
		Joins("JOIN debtors ON debtors.id = debts.debtor_id").
		Where("debt_history.user_id = ?", userID)

	if filter.DebtorID != 0 {
		query = query.Where("debts.debtor_id = ?", filter.DebtorID)
	}
	if filter.ActionType != "" {
		query = query.Where("debt_history.action_type = ?", filter.ActionType)
	}
	if filter.DateFrom != "" {
		from, err := time.Parse("2006-01-02", filter.DateFrom)
		if err != nil {
			return nil, errors.New("неверный формат даты начала, ожидается ГГГГ-ММ-ДД")
		}
		query = query.Where("debt_history.created_at >= ?", from)
	}
	if filter.DateTo != "" {
		to, err := time.Parse("2006-01-02", filter.DateTo)
		if err != nil {
			return nil, errors.New("неверный формат даты окончания, ожидается ГГГГ-ММ-ДД")
		}
		// Граница включительная, поэтому сдвигаем на сутки вперед
		query = query.Where("debt_history.created_at < ?", to.AddDate(0, 0, 1))
	}

	var entries []HistoryEntry
	if err := query.Order("debt_history.created_at DESC").Scan(&entries).Error; err != nil {
		return nil, errors.New("ошибка при чтении журнала операций")
	}

	return entries, nil
}

// ListForDebt возвращает журнал одного долга, новые записи первыми
func (s *HistoryService) ListForDebt(debtID, userID uint) ([]models.DebtHistory, error) {
	var debt models.Debt
	if err := s.db.First(&debt, debtID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("ошибка при поиске долга")
	}

	var debtor models.Debtor
	if err := s.db.First(&debtor, debt.DebtorID).Error; err != nil {
		return nil, errors.New("ошибка при поиске должника")
	}
	if debtor.UserID != userID {
		return nil, ErrAccessDenied
	}

	var history []models.DebtHistory
	if err := s.db.Where("debt_id = ?", debtID).Order("created_at DESC").Find(&history).Error; err != nil {
		return nil, errors.New("ошибка при чтении истории долга")
	}

	return history, nil
}
