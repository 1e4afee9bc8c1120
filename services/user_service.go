package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"dolgovnik/models"
	"dolgovnik/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Ошибки аутентификации и управления пользователями
var (
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	ErrUserExists         = errors.New("пользователь с таким именем или email уже существует")
	ErrInvalidResetToken  = errors.New("ссылка для сброса пароля недействительна или истекла")
)

// RegisterDTO представляет данные регистрации
type RegisterDTO struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	db        *gorm.DB
	validator *validator.Validate
	email     *EmailService
}

// NewUserService создает новый экземпляр UserService
func NewUserService(db *gorm.DB, email *EmailService) *UserService {
	return &UserService{
		db:        db,
		validator: validator.New(),
		email:     email,
	}
}

// Register создает нового пользователя с хешированным паролем
func (s *UserService) Register(dto RegisterDTO) (*models.User, error) {
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
		return nil, errors.New(strings.Join(errorMessages, "; "))
	}

	// Проверяем уникальность имени и email
	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", dto.Username, dto.Email).
		Count(&count).Error; err != nil {
		return nil, errors.New("ошибка при проверке пользователя")
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("ошибка при хешировании пароля")
	}

	user := &models.User{
		Username: dto.Username,
		Email:    dto.Email,
		Password: string(hash),
		Currency: "CLP",
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, errors.New("ошибка при создании пользователя")
	}

	return user, nil
}

// Authenticate проверяет логин и пароль и возвращает пользователя
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? OR email = ?", username, username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.New("ошибка при поиске пользователя")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.New("ошибка при поиске пользователя")
	}
	return &user, nil
}

// UpdateCurrency меняет валюту отображения пользователя
func (s *UserService) UpdateCurrency(userID uint, currency string) (*models.User, error) {
	if !utils.IsSupportedCurrency(currency) {
		return nil, utils.ErrUnsupportedCurrency
	}

	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	user.Currency = currency
	if err := s.db.Save(user).Error; err != nil {
		return nil, errors.New("ошибка при сохранении пользователя")
	}

	return user, nil
}

// RequestPasswordReset генерирует токен сброса и отправляет письмо.
// Для неизвестного email возвращает nil, чтобы не раскрывать базу адресов.
func (s *UserService) RequestPasswordReset(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.New("ошибка при поиске пользователя")
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return errors.New("ошибка при генерации токена")
	}

	expires := utils.GenerateExpirationTime(1 * time.Hour)
	user.ResetToken = token
	user.ResetExpires = &expires

	if err := s.db.Save(&user).Error; err != nil {
		return errors.New("ошибка при сохранении токена")
	}

	if s.email != nil {
		if err := s.email.SendPasswordResetEmail(user.Email, token); err != nil {
			log.Printf("Ошибка при отправке письма сброса пароля: %v", err)
		}
	}

	return nil
}

// ResetPassword устанавливает новый пароль по токену сброса
func (s *UserService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("пароль должен содержать минимум 6 символов")
	}

	var user models.User
	if err := s.db.Where("reset_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return errors.New("ошибка при поиске пользователя")
	}

	if user.ResetExpires == nil || utils.IsExpired(*user.ResetExpires) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("ошибка при хешировании пароля")
	}

	user.Password = string(hash)
	user.ResetToken = ""
	user.ResetExpires = nil

	if err := s.db.Save(&user).Error; err != nil {
		return errors.New("ошибка при сохранении пароля")
	}

	return nil
}

// ListUsers возвращает всех пользователей, доступно только администратору
func (s *UserService) ListUsers(requesterID uint) ([]models.User, error) {
	requester, err := s.GetByID(requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin {
		return nil, ErrAccessDenied
	}

	var users []models.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, errors.New("ошибка при чтении пользователей")
	}

	return users, nil
}
