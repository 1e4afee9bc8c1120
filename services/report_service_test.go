package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"dolgovnik/models"
)

func seedReportData(t *testing.T) (*ReportService, *models.User, *models.Debtor) {
	t.Helper()

	db := setupTestDB(t)
	user, debtor := seedUserAndDebtor(t, db)

	debts := []models.Debt{
		{
			DebtorID:    debtor.ID,
			Amount:      150000,
			InitialDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			DebtorID:          debtor.ID,
			Amount:            90000,
			InitialDate:       time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
			HasInstallments:   true,
			InstallmentsTotal: 3,
			InstallmentsPaid:  1,
			PartialPayment:    5000,
		},
		{
			DebtorID:    debtor.ID,
			Amount:      20000,
			InitialDate: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
			Paid:        true,
		},
	}
	for i := range debts {
		if err := db.Create(&debts[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	service := NewReportService(db)
	// Фиксируем момент формирования для воспроизводимого вывода
	service.RenderedAt = func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	}

	return service, user, debtor
}

func TestReportServiceDebtorReport(t *testing.T) {
	service, user, debtor := seedReportData(t)

	content, filename, err := service.DebtorReport(debtor.ID, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(content) == 0 {
		t.Fatal("отчет не должен быть пустым")
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Error("содержимое должно быть PDF-документом")
	}
	if filename != "dolgi_Иван.pdf" {
		t.Errorf("имя файла: got %v want dolgi_Иван.pdf", filename)
	}
}

func TestReportServiceDeterministicOutput(t *testing.T) {
	service, user, debtor := seedReportData(t)

	first, _, err := service.DebtorReport(debtor.ID, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := service.DebtorReport(debtor.ID, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("при фиксированном моменте формирования вывод должен совпадать")
	}
}

func TestReportServiceFullReport(t *testing.T) {
	service, user, _ := seedReportData(t)

	content, filename, err := service.FullReport(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Error("содержимое должно быть PDF-документом")
	}
	if filename != "otchet_20260801_120000.pdf" {
		t.Errorf("имя файла: got %v want otchet_20260801_120000.pdf", filename)
	}
}

func TestReportServiceOwnership(t *testing.T) {
	service, _, debtor := seedReportData(t)

	if _, _, err := service.DebtorReport(debtor.ID, 9999); err == nil {
		t.Error("чужой отчет должен отклоняться")
	}
	if _, _, err := service.DebtorReport(9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

func TestPaidAmountRule(t *testing.T) {
	// Погашенный долг считается целиком
	paid := &models.Debt{Amount: 500, Paid: true}
	if got := paidAmount(paid); got != 500 {
		t.Errorf("paidAmount: got %v want 500", got)
	}

	// Рассрочка: доля оплаченных частей плюс накопление
	installment := &models.Debt{
		Amount:            900,
		HasInstallments:   true,
		InstallmentsTotal: 3,
		InstallmentsPaid:  2,
		PartialPayment:    50,
	}
	if got := paidAmount(installment); got != 650 {
		t.Errorf("paidAmount: got %v want 650", got)
	}

	// Открытый долг без рассрочки не считается оплаченным
	open := &models.Debt{Amount: 500}
	if got := paidAmount(open); got != 0 {
		t.Errorf("paidAmount: got %v want 0", got)
	}
}
