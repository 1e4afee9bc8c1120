package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dolgovnik/models"
	"dolgovnik/services"
	"dolgovnik/utils"
)

// respondJSON отправляет ответ в формате JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondServiceError подбирает HTTP-статус под ошибку сервиса
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrFileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrAccessDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrAlreadySettled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidResetToken):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, models.ErrNoInstallments),
		errors.Is(err, models.ErrAllInstallmentsPaid),
		errors.Is(err, models.ErrInvalidPayment),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrFileNotAllowed),
		errors.Is(err, utils.ErrUnsupportedCurrency):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// currentUserID достает ID пользователя, установленный middleware
func currentUserID(r *http.Request) (uint, bool) {
	userID, ok := r.Context().Value("user_id").(uint)
	return userID, ok
}
