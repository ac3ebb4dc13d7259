package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanService/cache"
	"loanService/config"
	"loanService/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	return cfg
}

func TestCacheKeyFormats(t *testing.T) {
	// Формат ключей фиксирован: его воспроизводят другие потребители кэша
	assert.Equal(t, "user:ivan@example.com.loan:7.payments", scheduleCacheKey("ivan@example.com", 7))
	assert.Equal(t, "user:ivan@example.com.loan:7", loanCacheKey("ivan@example.com", 7))
	assert.Equal(t, "user:ivan@example.com.loans", loansCacheKey("ivan@example.com"))
}

func TestScheduleConflictError(t *testing.T) {
	// Строки графика уже есть: их вставил конкурентный запрос
	assert.ErrorIs(t, scheduleConflictError(12), ErrScheduleExists)

	// Строк нет: повторяются даты внутри самого запроса
	assert.ErrorIs(t, scheduleConflictError(0), ErrInvalidSchedule)
}

func TestGetScheduleServedFromCache(t *testing.T) {
	memCache := cache.NewMemoryCache()
	// База намеренно не задана: попадание в кэш не должно трогать базу
	service := NewScheduleService(nil, memCache, nil, testConfig())

	cached := []LoanPaymentDTO{
		{
			ID:               10,
			LoanID:           7,
			PaymentNumber:    1,
			PaymentDate:      models.NewDate(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)),
			PaymentAmount:    dec("88264.39"),
			InterestAmount:   dec("9105.19"),
			PrincipalAmount:  dec("79159.20"),
			IncomingBalance:  dec("1000000"),
			RemainingBalance: dec("920840.80"),
			YearPart:         dec("0.08469945355191256830601092896175"),
			DaysInYear:       366,
		},
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, memCache.Set(context.Background(), scheduleCacheKey("ivan@example.com", 7), data, 0))

	schedule, err := service.GetSchedule(context.Background(), 1, "ivan@example.com", 7)
	require.NoError(t, err)
	require.Len(t, schedule, 1)

	payment := schedule[0]
	assert.Equal(t, uint(7), payment.LoanID)
	assert.Equal(t, 1, payment.PaymentNumber)
	assert.True(t, payment.PaymentAmount.Equal(dec("88264.39")))
	assert.True(t, payment.IncomingBalance.Equal(dec("1000000")))
	assert.Equal(t, 366, payment.DaysInYear)
}

func TestLoanPaymentDTOSerialization(t *testing.T) {
	dto := LoanPaymentDTO{
		ID:               10,
		LoanID:           7,
		PaymentNumber:    1,
		PaymentDate:      models.NewDate(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)),
		PaymentAmount:    dec("88264.39"),
		InterestAmount:   dec("9105.19"),
		PrincipalAmount:  dec("79159.20"),
		IncomingBalance:  dec("1000000"),
		RemainingBalance: dec("920840.80"),
		YearPart:         dec("0.08469945355191256830601092896175"),
		DaysInYear:       366,
	}

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	body := string(data)

	// Суммы сериализуются строками, дата — в формате YYYY-MM-DD
	assert.True(t, strings.Contains(body, `"payment_amount":"88264.39"`), "body: %s", body)
	assert.True(t, strings.Contains(body, `"payment_date":"2024-02-10"`), "body: %s", body)

	var restored LoanPaymentDTO
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.True(t, restored.PaymentAmount.Equal(dto.PaymentAmount))
	assert.True(t, restored.YearPart.Equal(dto.YearPart))
	assert.Equal(t, dto.PaymentDate.Time, restored.PaymentDate.Time)
}
