package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loanService/cache"
	"loanService/config"
	"loanService/models"
	"loanService/utils"
)

// maxAmountDigits — максимум цифр в целой части денежных сумм (numeric(12,2))
const maxAmountDigits = 10

// CreateLoanDTO представляет данные для создания кредита
type CreateLoanDTO struct {
	Name                string          `json:"name" validate:"required,min=1,max=100"`
	Description         string          `json:"description" validate:"max=255"`
	StartDate           *models.Date    `json:"start_date"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent" validate:"required"`
	LoanAmount          decimal.Decimal `json:"loan_amount" validate:"required"`
	LoanTerm            int             `json:"loan_term" validate:"required,gt=1"`
}

// UpdateLoanDTO представляет данные для изменения кредита. Поля опциональны:
// переданные значения заменяют текущие. Структурные условия кредита
// (сумма, ставка, срок, дата открытия) нельзя менять при существующем графике.
type UpdateLoanDTO struct {
	Name                *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description         *string          `json:"description" validate:"omitempty,max=255"`
	StartDate           *models.Date     `json:"start_date"`
	InterestRatePercent *decimal.Decimal `json:"interest_rate_percent"`
	LoanAmount          *decimal.Decimal `json:"loan_amount"`
	LoanTerm            *int             `json:"loan_term" validate:"omitempty,gt=1"`
}

// LoanDTO представляет ответ с данными кредита
type LoanDTO struct {
	ID                  uint            `json:"id"`
	UserID              uint            `json:"user_id"`
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	StartDate           models.Date     `json:"start_date"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent"`
	LoanAmount          decimal.Decimal `json:"loan_amount"`
	LoanTerm            int             `json:"loan_term"`
}

// LoanService предоставляет методы для работы с кредитами
type LoanService struct {
	db        *gorm.DB
	cache     cache.Cache
	validator *validator.Validate
	cacheTTL  time.Duration
}

// NewLoanService создает новый экземпляр LoanService
func NewLoanService(db *gorm.DB, cacheStore cache.Cache, cfg *config.Config) *LoanService {
	return &LoanService{
		db:        db,
		cache:     cacheStore,
		validator: validator.New(),
		cacheTTL:  time.Duration(cfg.Cache.TTL) * time.Second,
	}
}

// validateStruct валидирует DTO и переводит ошибки валидации в сообщения
func (s *LoanService) validateStruct(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше "+e.Param())
			case "min", "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" имеет недопустимую длину")
			default:
				errorMessages = append(errorMessages, "поле "+e.Field()+" заполнено неверно")
			}
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errorMessages, "; "))
	}
	return nil
}

// validateAmount проверяет, что денежная сумма положительна и укладывается
// в numeric(12,2): не более 10 цифр в целой части и 2 знаков после запятой
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: поле %s должно быть больше 0", ErrValidation, field)
	}
	if len(amount.Truncate(0).String()) > maxAmountDigits {
		return fmt.Errorf("%w: поле %s превышает допустимый размер", ErrValidation, field)
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("%w: поле %s может иметь не более 2 знаков после запятой", ErrValidation, field)
	}
	return nil
}

// validateRate проверяет процентную ставку: положительная, numeric(6,4)
func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: поле interest_rate_percent должно быть больше 0", ErrValidation)
	}
	if rate.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: поле interest_rate_percent превышает допустимый размер", ErrValidation)
	}
	if rate.Exponent() < -4 {
		return fmt.Errorf("%w: поле interest_rate_percent может иметь не более 4 знаков после запятой", ErrValidation)
	}
	return nil
}

// toLoanDTO конвертирует модель Loan в DTO
func toLoanDTO(loan models.Loan) LoanDTO {
	return LoanDTO{
		ID:                  loan.ID,
		UserID:              loan.UserID,
		Name:                loan.Name,
		Description:         loan.Description,
		StartDate:           loan.StartDate,
		InterestRatePercent: loan.InterestRatePercent,
		LoanAmount:          loan.LoanAmount,
		LoanTerm:            loan.LoanTerm,
	}
}

// invalidate удаляет ключи из кэша; ошибки кэша только логируются
func (s *LoanService) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			utils.GetMetrics().RecordCacheError()
			utils.LogError("Ошибка удаления ключа %q из кэша: %v", key, err)
		}
	}
}

// cacheValue сериализует значение и кладет его в кэш (best-effort)
func (s *LoanService) cacheValue(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		utils.LogError("Ошибка сериализации значения для кэша: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		utils.GetMetrics().RecordCacheError()
		utils.LogError("Ошибка записи ключа %q в кэш: %v", key, err)
	}
}

// Create создает новый кредит
func (s *LoanService) Create(ctx context.Context, userID uint, email string, dto CreateLoanDTO) (*LoanDTO, error) {
	if err := s.validateStruct(dto); err != nil {
		return nil, err
	}
	if err := validateAmount("loan_amount", dto.LoanAmount); err != nil {
		return nil, err
	}
	if err := validateRate(dto.InterestRatePercent); err != nil {
		return nil, err
	}

	// Дата открытия по умолчанию — сегодня; фиксируется один раз до расчета
	startDate := models.NewDate(time.Now())
	if dto.StartDate != nil {
		startDate = *dto.StartDate
	}

	loan := models.Loan{
		UserID:              userID,
		Name:                dto.Name,
		Description:         dto.Description,
		StartDate:           startDate,
		InterestRatePercent: dto.InterestRatePercent,
		LoanAmount:          dto.LoanAmount,
		LoanTerm:            dto.LoanTerm,
	}

	if err := s.db.WithContext(ctx).Create(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: имя %q", ErrLoanNameTaken, dto.Name)
		}
		return nil, fmt.Errorf("ошибка при создании кредита: %v", err)
	}

	s.invalidate(ctx, loansCacheKey(email))

	result := toLoanDTO(loan)
	return &result, nil
}

// GetByID возвращает кредит пользователя по ID (сначала из кэша)
func (s *LoanService) GetByID(ctx context.Context, userID uint, email string, loanID uint) (*LoanDTO, error) {
	key := loanCacheKey(email, loanID)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var dto LoanDTO
		if err := json.Unmarshal(cached, &dto); err == nil {
			utils.GetMetrics().RecordCacheHit()
			return &dto, nil
		}
		utils.LogError("Поврежденная запись кредита в кэше: %v", err)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		utils.GetMetrics().RecordCacheError()
		utils.LogError("Ошибка чтения кредита из кэша: %v", err)
	} else {
		utils.GetMetrics().RecordCacheMiss()
	}

	var loan models.Loan
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", loanID, userID).
		First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске кредита: %v", err)
	}

	dto := toLoanDTO(loan)
	s.cacheValue(ctx, key, dto)
	return &dto, nil
}

// List возвращает все кредиты пользователя (сначала из кэша)
func (s *LoanService) List(ctx context.Context, userID uint, email string) ([]LoanDTO, error) {
	key := loansCacheKey(email)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var dtos []LoanDTO
		if err := json.Unmarshal(cached, &dtos); err == nil {
			utils.GetMetrics().RecordCacheHit()
			return dtos, nil
		}
		utils.LogError("Поврежденный список кредитов в кэше: %v", err)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		utils.GetMetrics().RecordCacheError()
		utils.LogError("Ошибка чтения списка кредитов из кэша: %v", err)
	} else {
		utils.GetMetrics().RecordCacheMiss()
	}

	var loans []models.Loan
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении списка кредитов: %v", err)
	}

	dtos := make([]LoanDTO, len(loans))
	for i, loan := range loans {
		dtos[i] = toLoanDTO(loan)
	}

	s.cacheValue(ctx, key, dtos)
	return dtos, nil
}

// changesLoanTerms сообщает, меняет ли запрос структурные условия кредита
func changesLoanTerms(dto UpdateLoanDTO) bool {
	return dto.LoanAmount != nil || dto.InterestRatePercent != nil ||
		dto.LoanTerm != nil || dto.StartDate != nil
}

// ensureTermsMutable запрещает менять структурные условия кредита, пока
// у него существует график платежей; имя и описание разрешены всегда
func ensureTermsMutable(dto UpdateLoanDTO, scheduledPayments int64) error {
	if changesLoanTerms(dto) && scheduledPayments > 0 {
		return ErrImmutableLoanTerms
	}
	return nil
}

// Update изменяет кредит. Пока у кредита существует график платежей,
// изменение суммы, ставки, срока и даты открытия запрещено — разрешены
// только имя и описание.
func (s *LoanService) Update(ctx context.Context, userID uint, email string, loanID uint, dto UpdateLoanDTO) (*LoanDTO, error) {
	if err := s.validateStruct(dto); err != nil {
		return nil, err
	}
	if dto.LoanAmount != nil {
		if err := validateAmount("loan_amount", *dto.LoanAmount); err != nil {
			return nil, err
		}
	}
	if dto.InterestRatePercent != nil {
		if err := validateRate(*dto.InterestRatePercent); err != nil {
			return nil, err
		}
	}

	var loan models.Loan
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", loanID, userID).
		First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске кредита: %v", err)
	}

	if changesLoanTerms(dto) {
		var scheduled int64
		if err := s.db.WithContext(ctx).
			Model(&models.LoanPayment{}).
			Where("loan_id = ?", loanID).
			Count(&scheduled).Error; err != nil {
			return nil, fmt.Errorf("ошибка при проверке графика платежей: %v", err)
		}
		if err := ensureTermsMutable(dto, scheduled); err != nil {
			return nil, err
		}
	}

	if dto.Name != nil {
		loan.Name = *dto.Name
	}
	if dto.Description != nil {
		loan.Description = *dto.Description
	}
	if dto.StartDate != nil {
		loan.StartDate = *dto.StartDate
	}
	if dto.InterestRatePercent != nil {
		loan.InterestRatePercent = *dto.InterestRatePercent
	}
	if dto.LoanAmount != nil {
		loan.LoanAmount = *dto.LoanAmount
	}
	if dto.LoanTerm != nil {
		loan.LoanTerm = *dto.LoanTerm
	}

	if err := s.db.WithContext(ctx).Save(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: имя %q", ErrLoanNameTaken, loan.Name)
		}
		return nil, fmt.Errorf("ошибка при обновлении кредита: %v", err)
	}

	s.invalidate(ctx, loanCacheKey(email, loanID), loansCacheKey(email))

	result := toLoanDTO(loan)
	return &result, nil
}

// Delete удаляет кредит вместе с графиком платежей
func (s *LoanService) Delete(ctx context.Context, userID uint, email string, loanID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", loanID, userID).
		Delete(&models.Loan{})
	if result.Error != nil {
		return fmt.Errorf("ошибка при удалении кредита: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLoanNotFound
	}

	s.invalidate(ctx,
		loanCacheKey(email, loanID),
		loansCacheKey(email),
		scheduleCacheKey(email, loanID),
	)
	return nil
}
