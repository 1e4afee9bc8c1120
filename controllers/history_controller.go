package controllers

import (
	"net/http"
	"strconv"

	"dolgovnik/database"
	"dolgovnik/services"
)

// HistoryController обрабатывает запросы к журналу операций
type HistoryController struct {
	historyService *services.HistoryService
}

// NewHistoryController создает новый экземпляр HistoryController
func NewHistoryController(db *database.Database) *HistoryController {
	return &HistoryController{
		historyService: services.NewHistoryService(db.DB),
	}
}

// List отдает журнал операций пользователя.
// Фильтры: debtor_id, action_type, date_from, date_to (включительно).
func (c *HistoryController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter := services.HistoryFilter{
		ActionType: r.URL.Query().Get("action_type"),
		DateFrom:   r.URL.Query().Get("date_from"),
		DateTo:     r.URL.Query().Get("date_to"),
	}

	if raw := r.URL.Query().Get("debtor_id"); raw != "" {
		debtorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "Invalid debtor_id", http.StatusBadRequest)
			return
		}
		filter.DebtorID = uint(debtorID)
	}

	entries, err := c.historyService.ListForUser(userID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}
