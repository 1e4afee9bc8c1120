package services

import (
	"errors"
	"testing"
	"time"

	"dolgovnik/models"
	"dolgovnik/utils"
)

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, nil)

	user, err := service.Register(RegisterDTO{
		Username: "pavel",
		Email:    "pavel@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.Currency != "CLP" {
		t.Errorf("валюта по умолчанию: got %v want CLP", user.Currency)
	}
	if user.Password == "secret123" {
		t.Error("пароль должен храниться в виде хеша")
	}

	// Вход по имени пользователя
	if _, err := service.Authenticate("pavel", "secret123"); err != nil {
		t.Errorf("вход по имени: %v", err)
	}
	// Вход по email
	if _, err := service.Authenticate("pavel@example.com", "secret123"); err != nil {
		t.Errorf("вход по email: %v", err)
	}
	// Неверный пароль
	if _, err := service.Authenticate("pavel", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ожидалась ошибка ErrInvalidCredentials, получено: %v", err)
	}
	// Неизвестный пользователь
	if _, err := service.Authenticate("ghost", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ожидалась ошибка ErrInvalidCredentials, получено: %v", err)
	}
}

func TestUserServiceRegisterRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, nil)

	if _, err := service.Register(RegisterDTO{
		Username: "pavel", Email: "pavel@example.com", Password: "secret123",
	}); err != nil {
		t.Fatal(err)
	}

	// Повтор имени
	if _, err := service.Register(RegisterDTO{
		Username: "pavel", Email: "new@example.com", Password: "secret123",
	}); !errors.Is(err, ErrUserExists) {
		t.Errorf("ожидалась ошибка ErrUserExists, получено: %v", err)
	}

	// Повтор email
	if _, err := service.Register(RegisterDTO{
		Username: "newname", Email: "pavel@example.com", Password: "secret123",
	}); !errors.Is(err, ErrUserExists) {
		t.Errorf("ожидалась ошибка ErrUserExists, получено: %v", err)
	}
}

func TestUserServiceUpdateCurrency(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewUserService(db, nil)

	updated, err := service.UpdateCurrency(user.ID, "BRL")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Currency != "BRL" {
		t.Errorf("валюта: got %v want BRL", updated.Currency)
	}

	if _, err := service.UpdateCurrency(user.ID, "EUR"); !errors.Is(err, utils.ErrUnsupportedCurrency) {
		t.Errorf("ожидалась ошибка ErrUnsupportedCurrency, получено: %v", err)
	}
}

func TestUserServicePasswordReset(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewUserService(db, nil)

	// Запрос для неизвестного адреса не возвращает ошибку
	if err := service.RequestPasswordReset("unknown@example.com"); err != nil {
		t.Errorf("неизвестный адрес: %v", err)
	}

	if err := service.RequestPasswordReset(user.Email); err != nil {
		t.Fatal(err)
	}

	var stored models.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.ResetToken == "" || stored.ResetExpires == nil {
		t.Fatal("токен сброса должен быть сохранен")
	}

	// Сброс по токену
	if err := service.ResetPassword(stored.ResetToken, "newsecret"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.Authenticate(user.Username, "newsecret"); err != nil {
		t.Errorf("вход с новым паролем: %v", err)
	}

	// Токен одноразовый
	if err := service.ResetPassword(stored.ResetToken, "another"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ожидалась ошибка ErrInvalidResetToken, получено: %v", err)
	}
}

func TestUserServiceResetTokenExpiry(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewUserService(db, nil)

	expired := time.Now().Add(-time.Hour)
	user.ResetToken = "stale-token"
	user.ResetExpires = &expired
	if err := db.Save(user).Error; err != nil {
		t.Fatal(err)
	}

	if err := service.ResetPassword("stale-token", "newsecret"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ожидалась ошибка ErrInvalidResetToken, получено: %v", err)
	}
}

func TestUserServiceListUsersAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewUserService(db, nil)

	admin := &models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "hash",
		IsAdmin:  true,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := service.ListUsers(user.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("ожидалась ошибка ErrAccessDenied, получено: %v", err)
	}

	users, err := service.ListUsers(admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("пользователей: got %v want 2", len(users))
	}
}
