package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"dolgovnik/database"
	"dolgovnik/services"

	"github.com/gorilla/mux"
)

// DebtController обрабатывает запросы, связанные с долгами
type DebtController struct {
	debtService    *services.DebtService
	historyService *services.HistoryService
	attachments    *services.AttachmentService
}

// NewDebtController создает новый экземпляр DebtController
func NewDebtController(db *database.Database, email *services.EmailService, attachments *services.AttachmentService) *DebtController {
	return &DebtController{
		debtService:    services.NewDebtService(db.DB, email, attachments),
		historyService: services.NewHistoryService(db.DB),
		attachments:    attachments,
	}
}

// parseDebtID извлекает ID долга из пути запроса
func parseDebtID(r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Create обрабатывает запрос на создание долга.
// Принимает JSON либо multipart-форму с файлами-подтверждениями.
func (c *DebtController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto services.CreateDebtDTO
	multipart := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")

	if multipart {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		parsed, err := debtDTOFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dto = *parsed
	} else {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	dto.UserID = userID

	debt, err := c.debtService.Create(dto)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Сохраняем вложения после создания записи
	if multipart && r.MultipartForm != nil {
		headers := r.MultipartForm.File["files"]
		if len(headers) > 0 {
			saved, err := c.attachments.SaveFiles(userID, debt.ID, "debt", headers)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			if err := c.debtService.AttachDebtFiles(debt.ID, userID, saved); err != nil {
				respondServiceError(w, err)
				return
			}
			debt, _ = c.debtService.GetByID(debt.ID, userID)
		}
	}

	respondJSON(w, http.StatusCreated, debt)
}

// debtDTOFromForm разбирает поля multipart-формы создания долга
func debtDTOFromForm(r *http.Request) (*services.CreateDebtDTO, error) {
	debtorID, err := strconv.ParseUint(r.FormValue("debtor_id"), 10, 32)
	if err != nil {
		return nil, err
	}

	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	if err != nil {
		return nil, err
	}

	dto := &services.CreateDebtDTO{
		DebtorID:    uint(debtorID),
		Amount:      amount,
		InitialDate: r.FormValue("initial_date"),
		Notes:       r.FormValue("notes"),
	}

	if r.FormValue("has_installments") == "true" {
		dto.HasInstallments = true
		total, err := strconv.Atoi(r.FormValue("installments_total"))
		if err != nil {
			return nil, err
		}
		dto.InstallmentsTotal = total
	}

	return dto, nil
}

// Get обрабатывает запрос на один долг
func (c *DebtController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	debt, err := c.debtService.GetByID(debtID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debt)
}

// Edit обрабатывает запрос на редактирование долга
func (c *DebtController) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	var dto services.EditDebtDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.DebtID = debtID
	dto.UserID = userID

	debt, err := c.debtService.Edit(dto)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debt)
}

// Delete обрабатывает запрос на удаление долга
func (c *DebtController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	if err := c.debtService.Delete(debtID, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Долг удален"})
}

// ApplyPayment обрабатывает запрос на частичную оплату долга
func (c *DebtController) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	var dto services.ApplyPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.DebtID = debtID
	dto.UserID = userID

	result, err := c.debtService.ApplyPayment(dto)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PayInstallment обрабатывает запрос на оплату одной части рассрочки
func (c *DebtController) PayInstallment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	debt, err := c.debtService.PayInstallment(debtID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debt)
}

// MarkPaid обрабатывает запрос на полное погашение долга.
// Принимает multipart-форму с файлами-подтверждениями оплаты.
func (c *DebtController) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	var evidence []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) > 0 {
			evidence, err = c.attachments.SaveFiles(userID, debtID, "payment", headers)
			if err != nil {
				respondServiceError(w, err)
				return
			}
		}
	}

	debt, err := c.debtService.MarkPaid(debtID, userID, evidence)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debt)
}

// UploadEvidence добавляет файлы-подтверждения оплаты к долгу
func (c *DebtController) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "Файлы не переданы", http.StatusBadRequest)
		return
	}

	saved, err := c.attachments.SaveFiles(userID, debtID, "payment", headers)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := c.debtService.AttachPaymentEvidence(debtID, userID, saved); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"files": saved})
}

// DownloadFile отдает вложение долга
func (c *DebtController) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	// Проверяем принадлежность долга до выдачи файла
	debt, err := c.debtService.GetByID(debtID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	filename := mux.Vars(r)["filename"]

	// Файл обязан числиться в одном из списков вложений
	known := false
	for _, f := range append(debt.GetDebtAttachments(), debt.GetPaymentAttachments()...) {
		if f == filename {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, "файл не найден", http.StatusNotFound)
		return
	}

	path, err := c.attachments.ResolveFile(userID, debtID, filename)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeFile(w, r, path)
}

// History отдает журнал операций одного долга
func (c *DebtController) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtID, err := parseDebtID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}

	history, err := c.historyService.ListForDebt(debtID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}
