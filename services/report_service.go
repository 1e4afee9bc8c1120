package services

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dolgovnik/models"
	"dolgovnik/utils"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// ReportService формирует PDF-отчеты по долгам.
// RenderedAt можно зафиксировать в тестах для воспроизводимого вывода.
type ReportService struct {
	db         *gorm.DB
	RenderedAt func() time.Time
}

// NewReportService создает новый экземпляр ReportService
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{
		db:         db,
		RenderedAt: time.Now,
	}
}

// DebtorReport формирует PDF по одному должнику.
// Возвращает содержимое и имя файла для выдачи клиенту.
func (s *ReportService) DebtorReport(debtorID, userID uint) ([]byte, string, error) {
	var debtor models.Debtor
	if err := s.db.Preload("Debts").First(&debtor, debtorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", errors.New("ошибка при поиске должника")
	}
	if debtor.UserID != userID {
		return nil, "", ErrAccessDenied
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, "", errors.New("ошибка при поиске пользователя")
	}

	now := s.RenderedAt()
	pdf, tr := s.newDocument(now)

	s.renderDebtorSection(pdf, tr, &debtor, user.Currency, now)
	s.renderAuthenticityNote(pdf, tr)

	content, err := s.output(pdf)
	if err != nil {
		return nil, "", err
	}

	utils.GetMetrics().RecordDebtOperation("report", nil)

	filename := "dolgi_" + sanitizeName(debtor.Name) + ".pdf"
	return content, filename, nil
}

// FullReport формирует сводный PDF по всем должникам пользователя
func (s *ReportService) FullReport(userID uint) ([]byte, string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", errors.New("ошибка при поиске пользователя")
	}

	var debtors []models.Debtor
	if err := s.db.Where("user_id = ?", userID).Preload("Debts").Order("name ASC").Find(&debtors).Error; err != nil {
		return nil, "", errors.New("ошибка при поиске должников")
	}

	now := s.RenderedAt()
	pdf, tr := s.newDocument(now)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Сводный отчет по долгам"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Сформирован: "+now.Format("02.01.2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	var grandTotal, grandPaid float64
	for i := range debtors {
		s.renderDebtorSection(pdf, tr, &debtors[i], user.Currency, now)
		for _, debt := range debtors[i].Debts {
			grandTotal += debt.Amount
			grandPaid += paidAmount(&debt)
		}
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr("Итого по всем должникам: "+s.formatMoney(grandTotal, user.Currency)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, tr("Оплачено всего: "+s.formatMoney(grandPaid, user.Currency)), "", 1, "L", false, 0, "")

	s.renderAuthenticityNote(pdf, tr)

	content, err := s.output(pdf)
	if err != nil {
		return nil, "", err
	}

	utils.GetMetrics().RecordDebtOperation("report", nil)

	filename := "otchet_" + now.Format("20060102_150405") + ".pdf"
	return content, filename, nil
}

// newDocument создает документ с водяным знаком и нижним колонтитулом
func (s *ReportService) newDocument(now time.Time) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(now)
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10,
			tr("Страница "+strconv.Itoa(pdf.PageNo())+" из {nb}"),
			"", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.SetHeaderFunc(func() {
		// Диагональный водяной знак на каждой странице
		pdf.SetFont("Helvetica", "B", 48)
		pdf.SetTextColor(230, 230, 230)
		pdf.TransformBegin()
		pdf.TransformRotate(45, 108, 140)
		pdf.Text(55, 145, "Dolgovnik")
		pdf.SetFont("Helvetica", "", 14)
		pdf.Text(75, 160, now.Format("02.01.2006 15:04"))
		pdf.TransformEnd()
		pdf.SetTextColor(0, 0, 0)
		pdf.SetY(15)
	})

	pdf.AddPage()
	return pdf, tr
}

// renderDebtorSection выводит блок должника: данные, таблицу долгов, итоги
func (s *ReportService) renderDebtorSection(pdf *gofpdf.Fpdf, tr func(string) string, debtor *models.Debtor, currency string, now time.Time) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, tr("Должник: "+debtor.Name), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if debtor.Phone != "" {
		pdf.CellFormat(0, 5, tr("Телефон: "+debtor.Phone), "", 1, "L", false, 0, "")
	}
	if debtor.Email != "" {
		pdf.CellFormat(0, 5, tr("Email: "+debtor.Email), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// Шапка таблицы
	headers := []string{"Сумма", "Дата", "Дней", "Рассрочка", "Файлы", "Статус"}
	widths := []float64{38, 28, 18, 30, 20, 32}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	var total, paid float64
	for i := range debtor.Debts {
		debt := &debtor.Debts[i]
		total += debt.Amount
		paid += paidAmount(debt)

		installments := "-"
		if debt.HasInstallments {
			installments = strconv.Itoa(debt.InstallmentsPaid) + "/" + strconv.Itoa(debt.InstallmentsTotal)
		}

		files := "-"
		if n := debt.CountAttachments(); n > 0 {
			files = strconv.Itoa(n)
		}

		status := "Не оплачен"
		if debt.Paid {
			status = "Оплачен"
		}

		cells := []string{
			s.formatMoney(debt.Amount, currency),
			debt.InitialDate.Format("02.01.2006"),
			strconv.Itoa(debt.DaysElapsedAt(now)),
			installments,
			files,
			status,
		}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 6, tr(c), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, tr("Всего долгов: "+s.formatMoney(total, currency)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Оплачено: "+s.formatMoney(paid, currency)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Остаток: "+s.formatMoney(total-paid, currency)), "", 1, "L", false, 0, "")
}

// renderAuthenticityNote выводит примечание о происхождении документа
func (s *ReportService) renderAuthenticityNote(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 4,
		tr("Документ сформирован автоматически системой учета долгов Dolgovnik и не требует подписи."),
		"", "L", false)
	pdf.SetTextColor(0, 0, 0)
}

// paidAmount считает фактически оплаченную часть долга.
// Для оплаченного долга это вся сумма, для рассрочки доля оплаченных
// частей плюс накопленный частичный взнос, иначе ноль.
func paidAmount(debt *models.Debt) float64 {
	if debt.Paid {
		return debt.Amount
	}
	if debt.HasInstallments && debt.InstallmentsTotal > 0 {
		share := debt.Amount / float64(debt.InstallmentsTotal)
		return share*float64(debt.InstallmentsPaid) + debt.PartialPayment
	}
	return 0
}

// formatMoney форматирует сумму в валюте пользователя
func (s *ReportService) formatMoney(amount float64, currency string) string {
	formatted, err := utils.FormatCurrency(amount, currency)
	if err != nil {
		return fmt.Sprintf("%.2f", amount)
	}
	return formatted
}

// output сериализует документ в память
func (s *ReportService) output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.New("ошибка при формировании PDF")
	}
	return buf.Bytes(), nil
}
