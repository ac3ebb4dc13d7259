package controllers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"loanService/cache"
	"loanService/config"
	"loanService/middleware"
	"loanService/services"
)

// PaymentController обрабатывает запросы, связанные с графиками платежей
type PaymentController struct {
	scheduleService *services.ScheduleService
}

// NewPaymentController создает новый экземпляр PaymentController
func NewPaymentController(db *gorm.DB, cacheStore cache.Cache, email *services.EmailService, cfg *config.Config) *PaymentController {
	return &PaymentController{
		scheduleService: services.NewScheduleService(db, cacheStore, email, cfg),
	}
}

// CreateSchedule обрабатывает запрос на создание графика платежей.
// Тело запроса — JSON-массив частично заданных платежей; пустой массив
// означает расчет полностью по аннуитетной формуле.
func (c *PaymentController) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, email, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var overrides []services.PaymentOverride
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	schedule, err := c.scheduleService.CreateSchedule(r.Context(), userID, email, loanID, overrides)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, schedule)
}

// GetSchedule обрабатывает запрос на получение графика платежей
func (c *PaymentController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, email, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	schedule, err := c.scheduleService.GetSchedule(r.Context(), userID, email, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// DeleteSchedule обрабатывает запрос на удаление графика платежей
func (c *PaymentController) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID, email, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.scheduleService.DeleteSchedule(r.Context(), userID, email, loanID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
