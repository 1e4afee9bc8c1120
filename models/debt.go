package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dolgovnik/utils"
)

// Ошибки операций над долгом
var (
	ErrAlreadySettled      = errors.New("долг уже полностью погашен")
	ErrNoInstallments      = errors.New("у этого долга нет рассрочки")
	ErrAllInstallmentsPaid = errors.New("все части рассрочки уже оплачены")
	ErrInvalidPayment      = errors.New("сумма платежа должна быть больше нуля")
)

// Debt представляет отдельный долг должника
type Debt struct {
	ID                 uint          `gorm:"primaryKey;autoIncrement"`
	DebtorID           uint          `gorm:"column:debtor_id;not null;index"`
	Amount             float64       `gorm:"column:amount;not null"`
	InitialDate        time.Time     `gorm:"column:initial_date;not null"`
	HasInstallments    bool          `gorm:"column:has_installments;not null;default:false"`
	InstallmentsTotal  int           `gorm:"column:installments_total;not null;default:0"`
	InstallmentsPaid   int           `gorm:"column:installments_paid;not null;default:0"`
	PartialPayment     float64       `gorm:"column:partial_payment;not null;default:0"`
	Paid               bool          `gorm:"column:paid;not null;default:false;index"`
	Notes              string        `gorm:"column:notes;type:text"`
	DebtAttachments    string        `gorm:"column:debt_attachments;type:text"`
	PaymentAttachments string        `gorm:"column:payment_attachments;type:text"`
	History            []DebtHistory `gorm:"foreignKey:DebtID"`
	CreatedAt          time.Time     `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (Debt) TableName() string {
	return "debts"
}

// PaymentResult описывает результат применения платежа к долгу
type PaymentResult struct {
	InstallmentsCompleted int     `json:"installments_completed"`
	RemainingPayment      float64 `json:"remaining_payment"`
	DebtCompleted         bool    `json:"debt_completed"`
	Message               string  `json:"message"`
}

// InstallmentAmount возвращает размер одной части рассрочки
func (d *Debt) InstallmentAmount() float64 {
	if d.HasInstallments && d.InstallmentsTotal > 0 {
		return d.Amount / float64(d.InstallmentsTotal)
	}
	return d.Amount
}

// RemainingAmount возвращает непогашенный остаток долга.
// Накопленный частичный платеж уже учтен в остатке.
func (d *Debt) RemainingAmount() float64 {
	if d.HasInstallments {
		return d.Amount - (float64(d.InstallmentsPaid)*d.InstallmentAmount() + d.PartialPayment)
	}
	if d.Paid {
		return 0
	}
	return d.Amount
}

// DaysElapsed возвращает число дней с начальной даты долга
func (d *Debt) DaysElapsed() int {
	return d.DaysElapsedAt(time.Now())
}

// DaysElapsedAt считает дни относительно переданного момента
func (d *Debt) DaysElapsedAt(now time.Time) int {
	return int(now.Sub(d.InitialDate).Hours() / 24)
}

// ApplyPayment применяет произвольный платеж к долгу и возвращает результат.
// Долг без рассрочки гасится только платежом не меньше полной суммы.
// Для рассрочки платеж сначала закрывает накопление текущей части,
// затем целые части, остаток сохраняется как новое накопление.
// Излишек сверх полного погашения возвращается в RemainingPayment и
// больше никуда не применяется.
func (d *Debt) ApplyPayment(payment float64, currency string) (*PaymentResult, error) {
	if d.Paid {
		return nil, ErrAlreadySettled
	}
	if payment <= 0 {
		return nil, ErrInvalidPayment
	}

	result := &PaymentResult{}

	// Долг единой суммой, без рассрочки
	if !d.HasInstallments {
		if payment >= d.Amount {
			d.Paid = true
			d.PartialPayment = 0
			result.DebtCompleted = true
			result.RemainingPayment = payment - d.Amount
			if result.RemainingPayment > 0 {
				result.Message = fmt.Sprintf("Долг полностью погашен, излишек %s", formatMoney(result.RemainingPayment, currency))
			} else {
				result.Message = "Долг полностью погашен"
			}
		} else {
			// Долг остается открытым, сообщаем сколько не хватает
			result.RemainingPayment = d.Amount - payment
			result.Message = fmt.Sprintf("Платеж принят, до погашения не хватает %s", formatMoney(result.RemainingPayment, currency))
		}
		return result, nil
	}

	installmentValue := d.InstallmentAmount()
	remaining := payment

	// Сначала закрываем накопление по текущей части, если оно есть
	if d.PartialPayment > 0 {
		shortfall := installmentValue - d.PartialPayment
		if remaining >= shortfall {
			// Платеж закрывает текущую часть, остаток идет дальше
			remaining -= shortfall
			d.InstallmentsPaid++
			d.PartialPayment = 0
			result.InstallmentsCompleted++
		} else {
			// Платежа не хватило даже на текущую часть
			d.PartialPayment += remaining
			result.RemainingPayment = d.PartialPayment
			result.Message = fmt.Sprintf("Платеж добавлен к накоплению: %s из %s за текущую часть",
				formatMoney(d.PartialPayment, currency), formatMoney(installmentValue, currency))
			return result, nil
		}
	}

	// Закрываем целые части, пока хватает платежа
	for remaining >= installmentValue && d.InstallmentsPaid < d.InstallmentsTotal {
		remaining -= installmentValue
		d.InstallmentsPaid++
		result.InstallmentsCompleted++
	}

	// Остаток платежа становится новым накоплением
	if remaining > 0 && d.InstallmentsPaid < d.InstallmentsTotal {
		d.PartialPayment = remaining
		remaining = 0
	}

	if d.InstallmentsPaid >= d.InstallmentsTotal {
		// Все части закрыты, долг погашен; излишек только сообщаем
		d.Paid = true
		d.PartialPayment = 0
		result.DebtCompleted = true
		result.RemainingPayment = remaining
		if remaining > 0 {
			result.Message = fmt.Sprintf("Долг полностью погашен, излишек %s", formatMoney(remaining, currency))
		} else {
			result.Message = "Долг полностью погашен"
		}
		return result, nil
	}

	result.Message = fmt.Sprintf("Оплачено частей: %d, прогресс %d/%d",
		result.InstallmentsCompleted, d.InstallmentsPaid, d.InstallmentsTotal)
	if d.PartialPayment > 0 {
		result.Message += fmt.Sprintf(", накоплено %s на следующую часть", formatMoney(d.PartialPayment, currency))
	}
	return result, nil
}

// PayInstallment отмечает одну часть рассрочки оплаченной,
// независимо от суммы. При закрытии последней части долг гасится.
func (d *Debt) PayInstallment() error {
	if !d.HasInstallments {
		return ErrNoInstallments
	}
	if d.Paid {
		return ErrAlreadySettled
	}
	if d.InstallmentsPaid >= d.InstallmentsTotal {
		return ErrAllInstallmentsPaid
	}

	d.InstallmentsPaid++
	if d.InstallmentsPaid >= d.InstallmentsTotal {
		d.Paid = true
		d.PartialPayment = 0
	}
	return nil
}

// MarkPaid отмечает долг полностью погашенным.
// Для рассрочки все части считаются оплаченными, накопление сбрасывается.
func (d *Debt) MarkPaid() error {
	if d.Paid {
		return ErrAlreadySettled
	}

	d.Paid = true
	if d.HasInstallments {
		d.InstallmentsPaid = d.InstallmentsTotal
	}
	d.PartialPayment = 0
	return nil
}

// GetDebtAttachments возвращает список файлов-подтверждений долга
func (d *Debt) GetDebtAttachments() []string {
	return decodeAttachments(d.DebtAttachments)
}

// GetPaymentAttachments возвращает список файлов-подтверждений оплаты
func (d *Debt) GetPaymentAttachments() []string {
	return decodeAttachments(d.PaymentAttachments)
}

// CountAttachments возвращает общее число прикрепленных файлов
func (d *Debt) CountAttachments() int {
	return len(d.GetDebtAttachments()) + len(d.GetPaymentAttachments())
}

// SetDebtAttachments сохраняет список файлов долга как JSON
func (d *Debt) SetDebtAttachments(files []string) error {
	encoded, err := json.Marshal(files)
	if err != nil {
		return err
	}
	d.DebtAttachments = string(encoded)
	return nil
}

// SetPaymentAttachments сохраняет список файлов оплаты как JSON
func (d *Debt) SetPaymentAttachments(files []string) error {
	encoded, err := json.Marshal(files)
	if err != nil {
		return err
	}
	d.PaymentAttachments = string(encoded)
	return nil
}

// decodeAttachments разбирает JSON-список имен файлов
func decodeAttachments(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var files []string
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return []string{}
	}
	return files
}

// formatMoney форматирует сумму для текста сообщений
func formatMoney(amount float64, currency string) string {
	formatted, err := utils.FormatCurrency(amount, currency)
	if err != nil {
		return fmt.Sprintf("%.2f", amount)
	}
	return formatted
}
