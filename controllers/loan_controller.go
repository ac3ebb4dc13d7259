package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"loanService/cache"
	"loanService/config"
	"loanService/middleware"
	"loanService/services"
)

// LoanController обрабатывает запросы, связанные с кредитами
type LoanController struct {
	loanService *services.LoanService
}

// NewLoanController создает новый экземпляр LoanController
func NewLoanController(db *gorm.DB, cacheStore cache.Cache, cfg *config.Config) *LoanController {
	return &LoanController{
		loanService: services.NewLoanService(db, cacheStore, cfg),
	}
}

// writeJSON отправляет JSON-ответ с указанным статусом
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeServiceError сопоставляет ошибку бизнес-уровня с HTTP-статусом
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrLoanNotFound),
		errors.Is(err, services.ErrScheduleNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrLoanNameTaken),
		errors.Is(err, services.ErrScheduleExists),
		errors.Is(err, services.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidSchedule),
		errors.Is(err, services.ErrImmutableLoanTerms):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// loanIDFromRequest получает ID кредита из URL
func loanIDFromRequest(r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	loanID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, errors.New("Invalid loan ID")
	}
	return uint(loanID), nil
}

// CreateLoan обрабатывает запрос на создание кредита
func (c *LoanController) CreateLoan(w http.ResponseWriter, r *http.Request) {
	// Получаем пользователя из контекста
	userID, email, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Создаем DTO для запроса
	var dto services.CreateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Создаем кредит
	loan, err := c.loanService.Create(r.Context(), userID, email, dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

// GetLoans обрабатывает запрос на получение списка кредитов пользователя
func (c *LoanController) GetLoans(w http.ResponseWriter, r *http.Request) {
	userID, email, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loans, err := c.loanService.List(r.Context(), userID, email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

// GetLoan обрабатывает запрос на получение информации о кредите
func (c *LoanController) GetLoan(w http.ResponseWriter, r *http.Request) {
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

	loan, err := c.loanService.GetByID(r.Context(), userID, email, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

// UpdateLoan обрабатывает запрос на изменение кредита
func (c *LoanController) UpdateLoan(w http.ResponseWriter, r *http.Request) {
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

	var dto services.UpdateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	loan, err := c.loanService.Update(r.Context(), userID, email, loanID, dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

// DeleteLoan обрабатывает запрос на удаление кредита
func (c *LoanController) DeleteLoan(w http.ResponseWriter, r *http.Request) {
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

	if err := c.loanService.Delete(r.Context(), userID, email, loanID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
