package services

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"dolgovnik/models"
	"dolgovnik/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Общие ошибки сервисного слоя
var (
	ErrAccessDenied = errors.New("нет доступа к этому объекту")
	ErrNotFound     = errors.New("объект не найден")
)

// CreateDebtDTO представляет данные для создания долга
type CreateDebtDTO struct {
	DebtorID          uint    `json:"debtor_id" validate:"required"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	InitialDate       string  `json:"initial_date" validate:"required"`
	HasInstallments   bool    `json:"has_installments"`
	InstallmentsTotal int     `json:"installments_total"`
	Notes             string  `json:"notes"`
	UserID            uint    `json:"-" validate:"required"`
}

// EditDebtDTO представляет данные для редактирования долга
type EditDebtDTO struct {
	DebtID            uint    `json:"-" validate:"required"`
	Amount            float64 `json:"amount"`
	HasInstallments   bool    `json:"has_installments"`
	InstallmentsTotal int     `json:"installments_total"`
	Notes             string  `json:"notes"`
	UserID            uint    `json:"-" validate:"required"`
}

// ApplyPaymentDTO представляет данные произвольного платежа
type ApplyPaymentDTO struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	DebtID uint    `json:"-"`
	UserID uint    `json:"-"`
}

// DebtService предоставляет методы для работы с долгами
type DebtService struct {
	db          *gorm.DB
	validator   *validator.Validate
	email       *EmailService
	attachments *AttachmentService
}

// NewDebtService создает новый экземпляр DebtService
func NewDebtService(db *gorm.DB, email *EmailService, attachments *AttachmentService) *DebtService {
	return &DebtService{
		db:          db,
		validator:   validator.New(),
		email:       email,
		attachments: attachments,
	}
}

// validateDTO валидирует DTO и возвращает читаемые ошибки
func (s *DebtService) validateDTO(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше 0")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// loadDebtForUser загружает долг вместе с должником и его владельцем,
// проверяя что долг принадлежит пользователю
func (s *DebtService) loadDebtForUser(tx *gorm.DB, debtID, userID uint) (*models.Debt, *models.Debtor, error) {
	var debt models.Debt
	if err := tx.First(&debt, debtID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.New("ошибка при поиске долга")
	}

	var debtor models.Debtor
	if err := tx.Preload("User").First(&debtor, debt.DebtorID).Error; err != nil {
		return nil, nil, errors.New("ошибка при поиске должника")
	}

	if debtor.UserID != userID {
		return nil, nil, ErrAccessDenied
	}

	return &debt, &debtor, nil
}

// logChange добавляет запись в историю долга внутри транзакции
func (s *DebtService) logChange(tx *gorm.DB, debtID, userID uint, actionType, description string) error {
	entry := &models.DebtHistory{
		DebtID:      debtID,
		UserID:      userID,
		ActionType:  actionType,
		Description: description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return errors.New("ошибка при записи истории")
	}
	return nil
}

// Create создает новый долг
func (s *DebtService) Create(dto CreateDebtDTO) (*models.Debt, error) {
	// Валидируем DTO
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	// Проверяем число частей рассрочки
	if dto.HasInstallments && dto.InstallmentsTotal < 1 {
		return nil, errors.New("число частей рассрочки должно быть больше нуля")
	}

	// Разбираем дату
	initialDate, err := time.Parse("2006-01-02", dto.InitialDate)
	if err != nil {
		return nil, errors.New("неверный формат даты")
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Проверяем должника и его владельца
	var debtor models.Debtor
	if err := tx.Preload("User").First(&debtor, dto.DebtorID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("ошибка при поиске должника")
	}
	if debtor.UserID != dto.UserID {
		tx.Rollback()
		return nil, ErrAccessDenied
	}

	installmentsTotal := 0
	if dto.HasInstallments {
		installmentsTotal = dto.InstallmentsTotal
	}

	// Создаем долг
	debt := &models.Debt{
		DebtorID:          dto.DebtorID,
		Amount:            dto.Amount,
		InitialDate:       initialDate,
		HasInstallments:   dto.HasInstallments,
		InstallmentsTotal: installmentsTotal,
		InstallmentsPaid:  0,
		PartialPayment:    0,
		Paid:              false,
		Notes:             dto.Notes,
	}
	if err := tx.Create(debt).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при создании долга")
	}

	// Формируем описание для истории
	description := "Создан долг на " + formatUserMoney(dto.Amount, debtor.User.Currency)
	if dto.HasInstallments {
		description += ", рассрочка на " + strconv.Itoa(installmentsTotal) + " частей"
	}
	if err := s.logChange(tx, debt.ID, dto.UserID, models.ActionCreated, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordDebtOperation("create", nil)
	return debt, nil
}

// Edit редактирует существующий долг
func (s *DebtService) Edit(dto EditDebtDTO) (*models.Debt, error) {
	// Валидируем DTO
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	debt, _, err := s.loadDebtForUser(tx, dto.DebtID, dto.UserID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Обновляем сумму, если она задана и положительная
	if dto.Amount > 0 {
		debt.Amount = dto.Amount
	}

	// Обновляем рассрочку
	if dto.HasInstallments && dto.InstallmentsTotal > 0 {
		debt.HasInstallments = true
		debt.InstallmentsTotal = dto.InstallmentsTotal
		// Оплаченные части не могут превышать новый общий счет
		if debt.InstallmentsPaid > dto.InstallmentsTotal {
			debt.InstallmentsPaid = dto.InstallmentsTotal
		}
		// Если все части закрыты новым счетом, долг погашен
		if debt.InstallmentsPaid >= debt.InstallmentsTotal {
			debt.Paid = true
			debt.PartialPayment = 0
		}
	} else {
		debt.HasInstallments = false
		debt.InstallmentsTotal = 0
		debt.InstallmentsPaid = 0
		debt.PartialPayment = 0
	}

	debt.Notes = dto.Notes

	// Сохраняем изменения
	if err := tx.Save(debt).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при сохранении долга")
	}

	if err := s.logChange(tx, debt.ID, dto.UserID, models.ActionEdited, "Долг отредактирован"); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	return debt, nil
}

// ApplyPayment применяет произвольный платеж к долгу
func (s *DebtService) ApplyPayment(dto ApplyPaymentDTO) (*models.PaymentResult, error) {
	// Валидируем DTO
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	debt, debtor, err := s.loadDebtForUser(tx, dto.DebtID, dto.UserID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Применяем платеж к состоянию долга
	result, err := debt.ApplyPayment(dto.Amount, debtor.User.Currency)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Сохраняем долг
	if err := tx.Save(debt).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при сохранении долга")
	}

	// Записываем историю: одна запись на одну мутацию
	actionType := models.ActionInstallmentPaid
	if result.DebtCompleted {
		actionType = models.ActionMarkedPaid
	}
	if err := s.logChange(tx, debt.ID, dto.UserID, actionType, result.Message); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordDebtOperation("payment", nil)

	// Уведомляем о погашении после фиксации, сбой отправки не откатывает платеж
	if result.DebtCompleted {
		utils.GetMetrics().RecordDebtOperation("settle", nil)
		s.notifyDebtPaid(debtor, debt)
	}

	return result, nil
}

// PayInstallment отмечает одну часть рассрочки оплаченной
func (s *DebtService) PayInstallment(debtID, userID uint) (*models.Debt, error) {
	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	debt, debtor, err := s.loadDebtForUser(tx, debtID, userID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := debt.PayInstallment(); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Сохраняем долг
	if err := tx.Save(debt).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при сохранении долга")
	}

	// Записываем историю
	if debt.Paid {
		err = s.logChange(tx, debt.ID, userID, models.ActionMarkedPaid,
			"Долг полностью погашен (все части оплачены)")
	} else {
		err = s.logChange(tx, debt.ID, userID, models.ActionInstallmentPaid,
			"Часть "+strconv.Itoa(debt.InstallmentsPaid)+"/"+strconv.Itoa(debt.InstallmentsTotal)+" оплачена")
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordDebtOperation("payment", nil)
	if debt.Paid {
		utils.GetMetrics().RecordDebtOperation("settle", nil)
		s.notifyDebtPaid(debtor, debt)
	}

	return debt, nil
}

// MarkPaid отмечает долг полностью погашенным.
// evidenceFiles — уже сохраненные файлы-подтверждения оплаты, если есть.
func (s *DebtService) MarkPaid(debtID, userID uint, evidenceFiles []string) (*models.Debt, error) {
	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	debt, debtor, err := s.loadDebtForUser(tx, debtID, userID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := debt.MarkPaid(); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Добавляем файлы подтверждения оплаты к существующим
	if len(evidenceFiles) > 0 {
		existing := debt.GetPaymentAttachments()
		existing = append(existing, evidenceFiles...)
		if err := debt.SetPaymentAttachments(existing); err != nil {
			tx.Rollback()
			return nil, errors.New("ошибка при сохранении списка файлов")
		}
	}

	// Сохраняем долг
	if err := tx.Save(debt).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при сохранении долга")
	}

	if err := s.logChange(tx, debt.ID, userID, models.ActionMarkedPaid, "Долг отмечен как погашенный"); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordDebtOperation("settle", nil)
	s.notifyDebtPaid(debtor, debt)

	return debt, nil
}

// Delete удаляет долг вместе с историей и файлами
func (s *DebtService) Delete(debtID, userID uint) error {
	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.New("ошибка при начале транзакции")
	}

	debt, debtor, err := s.loadDebtForUser(tx, debtID, userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	// Удаляем историю каскадно вместе с долгом
	if err := tx.Where("debt_id = ?", debtID).Delete(&models.DebtHistory{}).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при удалении истории")
	}

	if err := tx.Delete(debt).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при удалении долга")
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return errors.New("ошибка при подтверждении транзакции")
	}

	// Удаляем директорию с файлами после фиксации
	if s.attachments != nil {
		if err := s.attachments.RemoveDebtDir(debtor.UserID, debtID); err != nil {
			log.Printf("Ошибка при удалении файлов долга %d: %v", debtID, err)
		}
	}

	return nil
}

// GetByID возвращает долг пользователя по ID
func (s *DebtService) GetByID(debtID, userID uint) (*models.Debt, error) {
	debt, _, err := s.loadDebtForUser(s.db, debtID, userID)
	return debt, err
}

// AttachDebtFiles добавляет файлы-подтверждения долга к записи
func (s *DebtService) AttachDebtFiles(debtID, userID uint, files []string) error {
	return s.attachFiles(debtID, userID, files, false)
}

// AttachPaymentEvidence добавляет файлы-подтверждения оплаты к записи
func (s *DebtService) AttachPaymentEvidence(debtID, userID uint, files []string) error {
	return s.attachFiles(debtID, userID, files, true)
}

// attachFiles добавляет имена файлов к одному из списков вложений
func (s *DebtService) attachFiles(debtID, userID uint, files []string, payment bool) error {
	if len(files) == 0 {
		return nil
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.New("ошибка при начале транзакции")
	}

	debt, _, err := s.loadDebtForUser(tx, debtID, userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	if payment {
		existing := append(debt.GetPaymentAttachments(), files...)
		err = debt.SetPaymentAttachments(existing)
	} else {
		existing := append(debt.GetDebtAttachments(), files...)
		err = debt.SetDebtAttachments(existing)
	}
	if err != nil {
		tx.Rollback()
		return errors.New("ошибка при сохранении списка файлов")
	}

	if err := tx.Save(debt).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при сохранении долга")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.New("ошибка при подтверждении транзакции")
	}

	return nil
}

// notifyDebtPaid отправляет уведомления о погашении долга
func (s *DebtService) notifyDebtPaid(debtor *models.Debtor, debt *models.Debt) {
	if s.email == nil {
		return
	}

	amount := formatUserMoney(debt.Amount, debtor.User.Currency)

	// Письмо владельцу записи
	if debtor.User.Email != "" {
		if err := s.email.SendDebtPaidNotification(debtor.User.Email, debtor.Name, amount); err != nil {
			log.Printf("Ошибка при отправке уведомления владельцу: %v", err)
		} else {
			utils.GetMetrics().RecordDebtOperation("email", nil)
		}
	}

	// Письмо должнику, если известен его email
	if debtor.Email != "" {
		if err := s.email.SendDebtPaidNotification(debtor.Email, debtor.Name, amount); err != nil {
			log.Printf("Ошибка при отправке уведомления должнику: %v", err)
		} else {
			utils.GetMetrics().RecordDebtOperation("email", nil)
		}
	}
}

// formatUserMoney форматирует сумму в валюте пользователя для текстов
func formatUserMoney(amount float64, currency string) string {
	formatted, err := utils.FormatCurrency(amount, currency)
	if err != nil {
		formatted, _ = utils.FormatCurrency(amount, "CLP")
	}
	return formatted
}
