package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loanService/cache"
	"loanService/config"
	"loanService/models"
	"loanService/utils"
)

// LoanPaymentDTO представляет один платеж графика в ответе API и в кэше.
// Decimal-поля сериализуются строками: перевод в двоичную плавающую точку
// потерял бы точность сумм.
type LoanPaymentDTO struct {
	ID               uint            `json:"id"`
	LoanID           uint            `json:"loan_id"`
	PaymentNumber    int             `json:"payment_number"`
	PaymentDate      models.Date     `json:"payment_date"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	InterestAmount   decimal.Decimal `json:"interest_amount"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount"`
	IncomingBalance  decimal.Decimal `json:"incoming_balance"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	YearPart         decimal.Decimal `json:"year_part"`
	DaysInYear       int             `json:"days_in_year"`
}

// Ключи кэша. Формат фиксирован: его воспроизводят другие потребители кэша.
func scheduleCacheKey(email string, loanID uint) string {
	return fmt.Sprintf("user:%s.loan:%d.payments", email, loanID)
}

func loanCacheKey(email string, loanID uint) string {
	return fmt.Sprintf("user:%s.loan:%d", email, loanID)
}

func loansCacheKey(email string) string {
	return fmt.Sprintf("user:%s.loans", email)
}

// ScheduleService предоставляет методы для работы с графиками платежей.
// График создается один раз целиком, читается через кэш и удаляется целиком;
// частичное редактирование не поддерживается.
type ScheduleService struct {
	db           *gorm.DB
	cache        cache.Cache
	amortization *AmortizationService
	email        *EmailService
	cacheTTL     time.Duration
}

// NewScheduleService создает новый экземпляр ScheduleService
func NewScheduleService(db *gorm.DB, cacheStore cache.Cache, email *EmailService, cfg *config.Config) *ScheduleService {
	return &ScheduleService{
		db:           db,
		cache:        cacheStore,
		amortization: NewAmortizationService(),
		email:        email,
		cacheTTL:     time.Duration(cfg.Cache.TTL) * time.Second,
	}
}

// toLoanPaymentDTO конвертирует модель LoanPayment в DTO
func toLoanPaymentDTO(payment models.LoanPayment) LoanPaymentDTO {
	return LoanPaymentDTO{
		ID:               payment.ID,
		LoanID:           payment.LoanID,
		PaymentNumber:    payment.PaymentNumber,
		PaymentDate:      payment.PaymentDate,
		PaymentAmount:    payment.PaymentAmount,
		InterestAmount:   payment.InterestAmount,
		PrincipalAmount:  payment.PrincipalAmount,
		IncomingBalance:  payment.IncomingBalance,
		RemainingBalance: payment.RemainingBalance,
		YearPart:         payment.YearPart,
		DaysInYear:       payment.DaysInYear,
	}
}

// scheduleConflictError разбирает нарушение уникального ограничения при
// сохранении графика: если строки графика уже существуют, их вставил
// конкурентный запрос; иначе повторяются даты внутри самого запроса
func scheduleConflictError(existingRows int64) error {
	if existingRows > 0 {
		return ErrScheduleExists
	}
	return fmt.Errorf(
		"%w: среди переданных дат есть повторы, каждая дата платежа должна быть уникальной",
		ErrInvalidSchedule)
}

// cacheSchedule сохраняет график в кэш. Ошибки кэша логируются и не
// прерывают операцию: кэш — только ускорение чтения.
func (s *ScheduleService) cacheSchedule(ctx context.Context, email string, loanID uint, schedule []LoanPaymentDTO) {
	data, err := json.Marshal(schedule)
	if err != nil {
		utils.LogError("Ошибка сериализации графика для кэша: %v", err)
		return
	}
	if err := s.cache.Set(ctx, scheduleCacheKey(email, loanID), data, s.cacheTTL); err != nil {
		utils.GetMetrics().RecordCacheError()
		utils.LogError("Ошибка записи графика в кэш: %v", err)
	}
}

// CreateSchedule рассчитывает и сохраняет график платежей для кредита.
// Сохранение атомарно: либо записываются все платежи, либо ни одного.
func (s *ScheduleService) CreateSchedule(ctx context.Context, userID uint, email string, loanID uint, overrides []PaymentOverride) ([]LoanPaymentDTO, error) {
	// Начинаем транзакцию
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}
	defer tx.Rollback()

	// Проверяем, что кредит существует и принадлежит пользователю
	var loan models.Loan
	if err := tx.Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске кредита: %v", err)
	}

	// Проверяем, что графика еще нет
	var existing int64
	if err := tx.Model(&models.LoanPayment{}).Where("loan_id = ?", loanID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("ошибка при проверке существующего графика: %v", err)
	}
	if existing > 0 {
		return nil, ErrScheduleExists
	}

	// Рассчитываем график
	schedule, err := s.amortization.BuildSchedule(overrides, &loan)
	if err != nil {
		return nil, err
	}

	// Сохраняем все платежи одной вставкой: повтор даты нарушает
	// уникальное ограничение и откатывает весь пакет
	if err := tx.Create(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Ограничение срабатывает и когда график успел вставить
			// конкурентный запрос: перечитываем строки вне транзакции
			var existingRows int64
			if countErr := s.db.WithContext(ctx).
				Model(&models.LoanPayment{}).
				Where("loan_id = ?", loanID).
				Count(&existingRows).Error; countErr != nil {
				existingRows = 0
			}
			return nil, scheduleConflictError(existingRows)
		}
		return nil, fmt.Errorf("ошибка при сохранении графика: %v", err)
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordScheduleOperation("create", nil)

	dtos := make([]LoanPaymentDTO, len(schedule))
	for i, payment := range schedule {
		dtos[i] = toLoanPaymentDTO(payment)
	}

	// Кладем график в кэш (best-effort)
	s.cacheSchedule(ctx, email, loanID, dtos)

	// Уведомляем пользователя (best-effort)
	if s.email != nil {
		if err := s.email.SendScheduleCreatedNotification(email, loan.Name, len(dtos)); err != nil {
			utils.LogError("Ошибка при отправке уведомления о создании графика: %v", err)
		}
	}

	return dtos, nil
}

// GetSchedule возвращает график платежей кредита. Сначала проверяется кэш;
// при промахе или недоступности кэша график читается из базы и кэш
// пополняется заново.
func (s *ScheduleService) GetSchedule(ctx context.Context, userID uint, email string, loanID uint) ([]LoanPaymentDTO, error) {
	metrics := utils.GetMetrics()

	cached, err := s.cache.Get(ctx, scheduleCacheKey(email, loanID))
	if err == nil {
		var schedule []LoanPaymentDTO
		if err := json.Unmarshal(cached, &schedule); err == nil {
			metrics.RecordCacheHit()
			metrics.RecordScheduleOperation("read", nil)
			return schedule, nil
		}
		utils.LogError("Поврежденная запись графика в кэше: %v", err)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		metrics.RecordCacheError()
		utils.LogError("Ошибка чтения графика из кэша: %v", err)
	} else {
		metrics.RecordCacheMiss()
	}

	db := s.db.WithContext(ctx)

	var loan models.Loan
	if err := db.Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске кредита: %v", err)
	}

	var payments []models.LoanPayment
	if err := db.Where("loan_id = ?", loanID).
		Order("payment_date ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении графика: %v", err)
	}
	if len(payments) == 0 {
		return nil, ErrScheduleNotFound
	}

	dtos := make([]LoanPaymentDTO, len(payments))
	for i, payment := range payments {
		dtos[i] = toLoanPaymentDTO(payment)
	}

	// Пополняем кэш перед возвратом (best-effort)
	s.cacheSchedule(ctx, email, loanID, dtos)
	metrics.RecordScheduleOperation("read", nil)

	return dtos, nil
}

// DeleteSchedule удаляет график платежей кредита целиком
func (s *ScheduleService) DeleteSchedule(ctx context.Context, userID uint, email string, loanID uint) error {
	// Инвалидируем кэш до удаления строк (best-effort)
	if err := s.cache.Delete(ctx, scheduleCacheKey(email, loanID)); err != nil {
		utils.GetMetrics().RecordCacheError()
		utils.LogError("Ошибка удаления графика из кэша: %v", err)
	}

	db := s.db.WithContext(ctx)

	var loan models.Loan
	if err := db.Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLoanNotFound
		}
		return fmt.Errorf("ошибка при поиске кредита: %v", err)
	}

	result := db.Where("loan_id = ?", loanID).Delete(&models.LoanPayment{})
	if result.Error != nil {
		return fmt.Errorf("ошибка при удалении графика: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduleNotFound
	}

	utils.GetMetrics().RecordScheduleOperation("delete", nil)
	return nil
}
