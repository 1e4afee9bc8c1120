package controllers

import (
	"encoding/json"
	"net/http"

	"dolgovnik/database"
	"dolgovnik/services"
	"dolgovnik/utils"
)

// UserController обрабатывает запросы профиля и административные запросы
type UserController struct {
	userService   *services.UserService
	reportService *services.ReportService
	rateService   *services.RateService
}

// ProfileResponse представляет данные профиля
type ProfileResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
	IsAdmin  bool   `json:"is_admin"`
}

// NewUserController создает новый экземпляр UserController
func NewUserController(db *database.Database, email *services.EmailService, rates *services.RateService) *UserController {
	return &UserController{
		userService:   services.NewUserService(db.DB, email),
		reportService: services.NewReportService(db.DB),
		rateService:   rates,
	}
}

// Profile отдает профиль текущего пользователя
func (c *UserController) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := c.userService.GetByID(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Currency: user.Currency,
		IsAdmin:  user.IsAdmin,
	})
}

// UpdateCurrency меняет валюту отображения текущего пользователя
func (c *UserController) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := c.userService.UpdateCurrency(userID, req.Currency)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Currency: user.Currency,
		IsAdmin:  user.IsAdmin,
	})
}

// FullReport отдает сводный PDF по всем должникам пользователя
func (c *UserController) FullReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	content, filename, err := c.reportService.FullReport(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Write(content)
}

// ListUsers отдает список пользователей, доступно только администратору
func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := c.userService.ListUsers(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]ProfileResponse, 0, len(users))
	for _, u := range users {
		views = append(views, ProfileResponse{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Currency: u.Currency,
			IsAdmin:  u.IsAdmin,
		})
	}

	respondJSON(w, http.StatusOK, views)
}

// Rate отдает курс валюты из ленты центрального банка
func (c *UserController) Rate(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUserID(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		code = "USD"
	}

	rate, err := c.rateService.GetRate(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code": code,
		"rate": rate,
	})
}

// Metrics отдает снимок метрик приложения, доступно только администратору
func (c *UserController) Metrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := c.userService.GetByID(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !user.IsAdmin {
		http.Error(w, "нет доступа", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, utils.GetMetrics().GetMetricsSnapshot())
}
