package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newInstallmentDebt(amount float64, total int) *Debt {
	return &Debt{
		Amount:            amount,
		InitialDate:       time.Now().AddDate(0, 0, -10),
		HasInstallments:   true,
		InstallmentsTotal: total,
	}
}

func TestApplyPaymentLumpSumExact(t *testing.T) {
	debt := &Debt{Amount: 500, InitialDate: time.Now()}

	result, err := debt.ApplyPayment(500, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if !result.DebtCompleted || !debt.Paid {
		t.Error("долг должен быть погашен точным платежом")
	}
	if result.RemainingPayment != 0 {
		t.Errorf("излишек: got %v want 0", result.RemainingPayment)
	}
}

func TestApplyPaymentLumpSumSurplus(t *testing.T) {
	debt := &Debt{Amount: 500, InitialDate: time.Now()}

	result, err := debt.ApplyPayment(700, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if !result.DebtCompleted {
		t.Error("долг должен быть погашен")
	}
	// Излишек только сообщается, никуда не применяется
	if !almostEqual(result.RemainingPayment, 200) {
		t.Errorf("излишек: got %v want 200", result.RemainingPayment)
	}
}

func TestApplyPaymentLumpSumInsufficient(t *testing.T) {
	debt := &Debt{Amount: 500, InitialDate: time.Now()}

	result, err := debt.ApplyPayment(300, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if result.DebtCompleted || debt.Paid {
		t.Error("долг не должен быть погашен недостаточным платежом")
	}
	if !almostEqual(result.RemainingPayment, 200) {
		t.Errorf("до погашения: got %v want 200", result.RemainingPayment)
	}
}

func TestApplyPaymentInstallmentsWholeParts(t *testing.T) {
	// 300 на 3 части по 100, платеж 250 закрывает 2 части и копит 50
	debt := newInstallmentDebt(300, 3)

	result, err := debt.ApplyPayment(250, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if result.InstallmentsCompleted != 2 {
		t.Errorf("закрыто частей: got %v want 2", result.InstallmentsCompleted)
	}
	if debt.InstallmentsPaid != 2 {
		t.Errorf("оплачено частей: got %v want 2", debt.InstallmentsPaid)
	}
	if !almostEqual(debt.PartialPayment, 50) {
		t.Errorf("накопление: got %v want 50", debt.PartialPayment)
	}
	if debt.Paid {
		t.Error("долг не должен быть погашен")
	}
}

func TestApplyPaymentTopUpExactBoundary(t *testing.T) {
	// Часть 100, накоплено 60. Платеж 40 ровно закрывает часть.
	debt := newInstallmentDebt(300, 3)
	debt.PartialPayment = 60

	result, err := debt.ApplyPayment(40, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if result.InstallmentsCompleted != 1 {
		t.Errorf("закрыто частей: got %v want 1", result.InstallmentsCompleted)
	}
	if debt.InstallmentsPaid != 1 {
		t.Errorf("оплачено частей: got %v want 1", debt.InstallmentsPaid)
	}
	if !almostEqual(debt.PartialPayment, 0) {
		t.Errorf("накопление: got %v want 0", debt.PartialPayment)
	}
}

func TestApplyPaymentTopUpBelowBoundary(t *testing.T) {
	// Часть 100, накоплено 60. Платежа 39.99 не хватает на часть.
	debt := newInstallmentDebt(300, 3)
	debt.PartialPayment = 60

	result, err := debt.ApplyPayment(39.99, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if result.InstallmentsCompleted != 0 {
		t.Errorf("закрыто частей: got %v want 0", result.InstallmentsCompleted)
	}
	if debt.InstallmentsPaid != 0 {
		t.Errorf("оплачено частей: got %v want 0", debt.InstallmentsPaid)
	}
	if !almostEqual(debt.PartialPayment, 99.99) {
		t.Errorf("накопление: got %v want 99.99", debt.PartialPayment)
	}
}

func TestApplyPaymentConservation(t *testing.T) {
	// Сумма оплаченного и остатка всегда равна полной сумме долга
	debt := newInstallmentDebt(900, 3)

	payments := []float64{150, 150, 250, 100}
	for _, p := range payments {
		if _, err := debt.ApplyPayment(p, "CLP"); err != nil {
			t.Fatal(err)
		}
		paid := float64(debt.InstallmentsPaid)*debt.InstallmentAmount() + debt.PartialPayment
		if !almostEqual(paid+debt.RemainingAmount(), debt.Amount) {
			t.Fatalf("нарушен баланс: оплачено %v, остаток %v, сумма %v",
				paid, debt.RemainingAmount(), debt.Amount)
		}
	}
}

func TestApplyPaymentSettlesAndResetsPartial(t *testing.T) {
	debt := newInstallmentDebt(300, 3)
	debt.InstallmentsPaid = 2
	debt.PartialPayment = 30

	result, err := debt.ApplyPayment(170, "CLP")
	if err != nil {
		t.Fatal(err)
	}
	if !result.DebtCompleted || !debt.Paid {
		t.Error("долг должен быть погашен")
	}
	if debt.PartialPayment != 0 {
		t.Errorf("накопление должно быть сброшено, получено %v", debt.PartialPayment)
	}
	// 170 - 70 недостающих = излишек 100
	if !almostEqual(result.RemainingPayment, 100) {
		t.Errorf("излишек: got %v want 100", result.RemainingPayment)
	}
}

func TestApplyPaymentAlreadySettled(t *testing.T) {
	debt := &Debt{Amount: 100, Paid: true}

	_, err := debt.ApplyPayment(50, "CLP")
	if !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("ожидалась ошибка ErrAlreadySettled, получено: %v", err)
	}
}

func TestApplyPaymentRejectsNonPositive(t *testing.T) {
	debt := &Debt{Amount: 100}

	for _, p := range []float64{0, -10} {
		if _, err := debt.ApplyPayment(p, "CLP"); !errors.Is(err, ErrInvalidPayment) {
			t.Errorf("платеж %v: ожидалась ошибка ErrInvalidPayment, получено: %v", p, err)
		}
	}
}

func TestPayInstallment(t *testing.T) {
	debt := newInstallmentDebt(300, 2)

	if err := debt.PayInstallment(); err != nil {
		t.Fatal(err)
	}
	if debt.InstallmentsPaid != 1 || debt.Paid {
		t.Error("после первой части долг должен остаться открытым")
	}

	if err := debt.PayInstallment(); err != nil {
		t.Fatal(err)
	}
	if !debt.Paid {
		t.Error("после последней части долг должен быть погашен")
	}

	if err := debt.PayInstallment(); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("ожидалась ошибка ErrAlreadySettled, получено: %v", err)
	}
}

func TestPayInstallmentWithoutInstallments(t *testing.T) {
	debt := &Debt{Amount: 100}

	if err := debt.PayInstallment(); !errors.Is(err, ErrNoInstallments) {
		t.Errorf("ожидалась ошибка ErrNoInstallments, получено: %v", err)
	}
}

func TestMarkPaidResetsPartial(t *testing.T) {
	debt := newInstallmentDebt(300, 3)
	debt.InstallmentsPaid = 1
	debt.PartialPayment = 40

	if err := debt.MarkPaid(); err != nil {
		t.Fatal(err)
	}
	if !debt.Paid {
		t.Error("долг должен быть погашен")
	}
	if debt.InstallmentsPaid != 3 {
		t.Errorf("все части должны считаться оплаченными, получено %v", debt.InstallmentsPaid)
	}
	if debt.PartialPayment != 0 {
		t.Errorf("накопление должно быть сброшено, получено %v", debt.PartialPayment)
	}

	if err := debt.MarkPaid(); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("ожидалась ошибка ErrAlreadySettled, получено: %v", err)
	}
}

func TestRemainingAmount(t *testing.T) {
	debt := newInstallmentDebt(900, 3)
	debt.InstallmentsPaid = 2
	debt.PartialPayment = 50

	if !almostEqual(debt.RemainingAmount(), 250) {
		t.Errorf("остаток: got %v want 250", debt.RemainingAmount())
	}

	lump := &Debt{Amount: 500}
	if !almostEqual(lump.RemainingAmount(), 500) {
		t.Errorf("остаток: got %v want 500", lump.RemainingAmount())
	}
	lump.Paid = true
	if lump.RemainingAmount() != 0 {
		t.Errorf("остаток погашенного долга: got %v want 0", lump.RemainingAmount())
	}
}

func TestDaysElapsedAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	debt := &Debt{InitialDate: start}

	now := start.AddDate(0, 0, 45)
	if got := debt.DaysElapsedAt(now); got != 45 {
		t.Errorf("дней прошло: got %v want 45", got)
	}
}

func TestAttachmentsRoundTrip(t *testing.T) {
	debt := &Debt{}

	if err := debt.SetDebtAttachments([]string{"a.pdf", "b.png"}); err != nil {
		t.Fatal(err)
	}
	if err := debt.SetPaymentAttachments([]string{"c.jpg"}); err != nil {
		t.Fatal(err)
	}

	if got := len(debt.GetDebtAttachments()); got != 2 {
		t.Errorf("файлов долга: got %v want 2", got)
	}
	if debt.CountAttachments() != 3 {
		t.Errorf("всего файлов: got %v want 3", debt.CountAttachments())
	}

	// Пустое и битое поле дают пустой список
	empty := &Debt{}
	if len(empty.GetDebtAttachments()) != 0 {
		t.Error("пустое поле должно давать пустой список")
	}
	broken := &Debt{DebtAttachments: "{not json"}
	if len(broken.GetDebtAttachments()) != 0 {
		t.Error("битое поле должно давать пустой список")
	}
}
