package services

import (
	"errors"
	"testing"

	"dolgovnik/models"
)

func TestDebtorServiceCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewDebtorService(db, nil)

	debtor, err := service.Create(CreateDebtorDTO{
		Name:   "Мария",
		Phone:  "+56912345678",
		Email:  "maria@example.com",
		UserID: user.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := service.GetByID(debtor.ID, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "Мария" || loaded.Phone != "+56912345678" {
		t.Errorf("данные должника не совпадают: %+v", loaded)
	}
}

func TestDebtorServiceCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewDebtorService(db, nil)

	// Слишком короткое имя
	if _, err := service.Create(CreateDebtorDTO{Name: "А", UserID: user.ID}); err == nil {
		t.Error("короткое имя должно отклоняться")
	}

	// Некорректный email
	if _, err := service.Create(CreateDebtorDTO{Name: "Олег", Email: "not-an-email", UserID: user.ID}); err == nil {
		t.Error("некорректный email должен отклоняться")
	}
}

func TestDebtorServiceOwnership(t *testing.T) {
	db := setupTestDB(t)
	_, debtor := seedUserAndDebtor(t, db)
	service := NewDebtorService(db, nil)

	other := &models.User{Username: "other", Email: "other@example.com", Password: "hash"}
	if err := db.Create(other).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := service.GetByID(debtor.ID, other.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("ожидалась ошибка ErrAccessDenied, получено: %v", err)
	}
	if err := service.Delete(debtor.ID, other.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("ожидалась ошибка ErrAccessDenied, получено: %v", err)
	}
}

func TestDebtorServiceDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	user, debtor := seedUserAndDebtor(t, db)

	debtService := NewDebtService(db, nil, nil)
	debt, err := debtService.Create(CreateDebtDTO{
		DebtorID:    debtor.ID,
		Amount:      500,
		InitialDate: "2026-01-15",
		UserID:      user.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	service := NewDebtorService(db, nil)
	if err := service.Delete(debtor.ID, user.ID); err != nil {
		t.Fatal(err)
	}

	// Долги и история удалены вместе с должником
	var debts int64
	db.Model(&models.Debt{}).Count(&debts)
	if debts != 0 {
		t.Errorf("долгов после удаления: got %v want 0", debts)
	}
	if got := historyCount(t, db, debt.ID); got != 0 {
		t.Errorf("записей истории после удаления: got %v want 0", got)
	}
}

func TestDebtorServiceListSearchAndSort(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndDebtor(t, db)
	service := NewDebtorService(db, nil)

	names := []string{"Boris", "Anna"}
	for _, name := range names {
		if _, err := service.Create(CreateDebtorDTO{Name: name, UserID: user.ID}); err != nil {
			t.Fatal(err)
		}
	}

	// По умолчанию сортировка по имени по возрастанию
	debtors, err := service.List(user.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(debtors) != 3 {
		t.Fatalf("должников: got %v want 3", len(debtors))
	}
	if debtors[0].Name != "Anna" {
		t.Errorf("первый должник: got %v want Anna", debtors[0].Name)
	}

	// Поиск по подстроке имени без учета регистра
	found, err := service.List(user.ID, "bor", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Name != "Boris" {
		t.Errorf("поиск: got %+v", found)
	}
}

func TestDebtorServiceStats(t *testing.T) {
	db := setupTestDB(t)
	user, debtor := seedUserAndDebtor(t, db)

	debtService := NewDebtService(db, nil, nil)
	if _, err := debtService.Create(CreateDebtDTO{
		DebtorID: debtor.ID, Amount: 500, InitialDate: "2026-01-15", UserID: user.ID,
	}); err != nil {
		t.Fatal(err)
	}
	paid, err := debtService.Create(CreateDebtDTO{
		DebtorID: debtor.ID, Amount: 300, InitialDate: "2026-01-15", UserID: user.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := debtService.MarkPaid(paid.ID, user.ID, nil); err != nil {
		t.Fatal(err)
	}

	service := NewDebtorService(db, nil)
	stats, err := service.Stats(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	if stats.TotalOwed != 800 {
		t.Errorf("TotalOwed: got %v want 800", stats.TotalOwed)
	}
	if stats.TotalPaid != 300 {
		t.Errorf("TotalPaid: got %v want 300", stats.TotalPaid)
	}
	if stats.TotalPending != 500 {
		t.Errorf("TotalPending: got %v want 500", stats.TotalPending)
	}
	if stats.ActiveDebtors != 1 {
		t.Errorf("ActiveDebtors: got %v want 1", stats.ActiveDebtors)
	}
}
