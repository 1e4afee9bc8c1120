package services

import (
	"errors"
	"log"
	"sort"
	"strings"

	"dolgovnik/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateDebtorDTO представляет данные для создания должника
type CreateDebtorDTO struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Phone  string `json:"phone" validate:"omitempty,max=20"`
	Email  string `json:"email" validate:"omitempty,email"`
	UserID uint   `json:"-" validate:"required"`
}

// EditDebtorDTO представляет данные для редактирования должника
type EditDebtorDTO struct {
	DebtorID uint   `json:"-" validate:"required"`
	Name     string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	UserID   uint   `json:"-" validate:"required"`
}

// DashboardStats представляет сводные показатели пользователя
type DashboardStats struct {
	TotalOwed     float64 `json:"total_owed"`
	TotalPaid     float64 `json:"total_paid"`
	TotalPending  float64 `json:"total_pending"`
	ActiveDebtors int     `json:"active_debtors"`
}

// DebtorService предоставляет методы для работы с должниками
type DebtorService struct {
	db          *gorm.DB
	validator   *validator.Validate
	attachments *AttachmentService
}

// NewDebtorService создает новый экземпляр DebtorService
func NewDebtorService(db *gorm.DB, attachments *AttachmentService) *DebtorService {
	return &DebtorService{
		db:          db,
		validator:   validator.New(),
		attachments: attachments,
	}
}

// validateDTO валидирует DTO и возвращает читаемые ошибки
func (s *DebtorService) validateDTO(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "min":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать минимум "+e.Param()+" символов")
			case "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать максимум "+e.Param()+" символов")
			case "email":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть корректным email")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// Create создает нового должника
func (s *DebtorService) Create(dto CreateDebtorDTO) (*models.Debtor, error) {
	// Валидируем DTO
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	debtor := &models.Debtor{
		UserID: dto.UserID,
		Name:   dto.Name,
		Phone:  dto.Phone,
		Email:  dto.Email,
	}

	if err := s.db.Create(debtor).Error; err != nil {
		return nil, errors.New("ошибка при создании должника")
	}

	return debtor, nil
}

// GetByID возвращает должника пользователя по ID вместе с долгами
func (s *DebtorService) GetByID(debtorID, userID uint) (*models.Debtor, error) {
	var debtor models.Debtor
	if err := s.db.Preload("Debts").First(&debtor, debtorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("ошибка при поиске должника")
	}

	if debtor.UserID != userID {
		return nil, ErrAccessDenied
	}

	return &debtor, nil
}

// Edit обновляет данные должника
func (s *DebtorService) Edit(dto EditDebtorDTO) (*models.Debtor, error) {
	// Валидируем DTO
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	debtor, err := s.GetByID(dto.DebtorID, dto.UserID)
	if err != nil {
		return nil, err
	}

	// Обновляем только переданные поля
	if dto.Name != "" {
		debtor.Name = dto.Name
	}
	if dto.Phone != "" {
		debtor.Phone = dto.Phone
	}
	if dto.Email != "" {
		debtor.Email = dto.Email
	}

	if err := s.db.Save(debtor).Error; err != nil {
		return nil, errors.New("ошибка при сохранении должника")
	}

	return debtor, nil
}

// Delete удаляет должника вместе со всеми долгами, историей и файлами
func (s *DebtorService) Delete(debtorID, userID uint) error {
	debtor, err := s.GetByID(debtorID, userID)
	if err != nil {
		return err
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.New("ошибка при начале транзакции")
	}

	// Удаляем историю всех долгов должника
	for _, debt := range debtor.Debts {
		if err := tx.Where("debt_id = ?", debt.ID).Delete(&models.DebtHistory{}).Error; err != nil {
			tx.Rollback()
			return errors.New("ошибка при удалении истории")
		}
	}

	// Удаляем долги
	if err := tx.Where("debtor_id = ?", debtorID).Delete(&models.Debt{}).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при удалении долгов")
	}

	// Удаляем должника
	if err := tx.Delete(debtor).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при удалении должника")
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return errors.New("ошибка при подтверждении транзакции")
	}

	// Удаляем файлы после фиксации
	if s.attachments != nil {
		for _, debt := range debtor.Debts {
			if err := s.attachments.RemoveDebtDir(userID, debt.ID); err != nil {
				log.Printf("Ошибка при удалении файлов долга %d: %v", debt.ID, err)
			}
		}
	}

	return nil
}

// List возвращает должников пользователя с поиском по имени и сортировкой.
// sortBy принимает name_asc, name_desc, debt_asc, debt_desc.
func (s *DebtorService) List(userID uint, search, sortBy string) ([]models.Debtor, error) {
	query := s.db.Where("user_id = ?", userID).Preload("Debts")

	// Поиск по имени без учета регистра
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var debtors []models.Debtor
	if err := query.Find(&debtors).Error; err != nil {
		return nil, errors.New("ошибка при поиске должников")
	}

	// Сортируем в памяти, балансовые сортировки зависят от агрегатов
	switch sortBy {
	case "name_desc":
		sort.Slice(debtors, func(i, j int) bool {
			return strings.ToLower(debtors[i].Name) > strings.ToLower(debtors[j].Name)
		})
	case "debt_asc":
		sort.Slice(debtors, func(i, j int) bool {
			return debtors[i].TotalDebt() < debtors[j].TotalDebt()
		})
	case "debt_desc":
		sort.Slice(debtors, func(i, j int) bool {
			return debtors[i].TotalDebt() > debtors[j].TotalDebt()
		})
	default:
		sort.Slice(debtors, func(i, j int) bool {
			return strings.ToLower(debtors[i].Name) < strings.ToLower(debtors[j].Name)
		})
	}

	return debtors, nil
}

// Stats считает сводные показатели по всем должникам пользователя
func (s *DebtorService) Stats(userID uint) (*DashboardStats, error) {
	var debtors []models.Debtor
	if err := s.db.Where("user_id = ?", userID).Preload("Debts").Find(&debtors).Error; err != nil {
		return nil, errors.New("ошибка при расчете статистики")
	}

	stats := &DashboardStats{}
	for _, debtor := range debtors {
		pending := debtor.TotalDebt()
		paid := debtor.TotalPaid()

		stats.TotalOwed += pending + paid
		stats.TotalPaid += paid
		stats.TotalPending += pending

		// Должник активен, пока за ним числится непогашенное
		if pending > 0 {
			stats.ActiveDebtors++
		}
	}

	return stats, nil
}
