package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"dolgovnik/database"
	"dolgovnik/services"

	"github.com/gorilla/mux"
)

// DebtorController обрабатывает запросы, связанные с должниками
type DebtorController struct {
	debtorService *services.DebtorService
	reportService *services.ReportService
}

// NewDebtorController создает новый экземпляр DebtorController
func NewDebtorController(db *database.Database, attachments *services.AttachmentService) *DebtorController {
	return &DebtorController{
		debtorService: services.NewDebtorService(db.DB, attachments),
		reportService: services.NewReportService(db.DB),
	}
}

// parseDebtorID извлекает ID должника из пути запроса
func parseDebtorID(r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Create обрабатывает запрос на создание должника
func (c *DebtorController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto services.CreateDebtorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.UserID = userID

	debtor, err := c.debtorService.Create(dto)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, debtor)
}

// List обрабатывает запрос на список должников.
// Поддерживает параметры search и sort (name_asc, name_desc, debt_asc, debt_desc).
func (c *DebtorController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	search := r.URL.Query().Get("search")
	sortBy := r.URL.Query().Get("sort")

	debtors, err := c.debtorService.List(userID, search, sortBy)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Дополняем список агрегатами по каждому должнику
	type debtorView struct {
		ID        uint    `json:"id"`
		Name      string  `json:"name"`
		Phone     string  `json:"phone"`
		Email     string  `json:"email"`
		TotalDebt float64 `json:"total_debt"`
		TotalPaid float64 `json:"total_paid"`
		Pending   float64 `json:"pending"`
	}

	views := make([]debtorView, 0, len(debtors))
	for _, d := range debtors {
		pending := d.TotalDebt()
		paid := d.TotalPaid()
		views = append(views, debtorView{
			ID:        d.ID,
			Name:      d.Name,
			Phone:     d.Phone,
			Email:     d.Email,
			TotalDebt: pending + paid,
			TotalPaid: paid,
			Pending:   pending,
		})
	}

	respondJSON(w, http.StatusOK, views)
}

// Get обрабатывает запрос на одного должника вместе с долгами
func (c *DebtorController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtorID, err := parseDebtorID(r)
	if err != nil {
		http.Error(w, "Invalid debtor ID", http.StatusBadRequest)
		return
	}

	debtor, err := c.debtorService.GetByID(debtorID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debtor)
}

// Edit обрабатывает запрос на редактирование должника
func (c *DebtorController) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtorID, err := parseDebtorID(r)
	if err != nil {
		http.Error(w, "Invalid debtor ID", http.StatusBadRequest)
		return
	}

	var dto services.EditDebtorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.DebtorID = debtorID
	dto.UserID = userID

	debtor, err := c.debtorService.Edit(dto)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debtor)
}

// Delete обрабатывает запрос на удаление должника со всеми долгами
func (c *DebtorController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtorID, err := parseDebtorID(r)
	if err != nil {
		http.Error(w, "Invalid debtor ID", http.StatusBadRequest)
		return
	}

	if err := c.debtorService.Delete(debtorID, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Должник удален"})
}

// Dashboard обрабатывает запрос на сводные показатели
func (c *DebtorController) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := c.debtorService.Stats(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// Report отдает PDF-отчет по должнику
func (c *DebtorController) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	debtorID, err := parseDebtorID(r)
	if err != nil {
		http.Error(w, "Invalid debtor ID", http.StatusBadRequest)
		return
	}

	content, filename, err := c.reportService.DebtorReport(debtorID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Write(content)
}
