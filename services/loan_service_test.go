package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loanService/models"
)

func TestChangesLoanTerms(t *testing.T) {
	name := "Ипотека"
	description := "Рефинансирование"
	amount := dec("500000")
	rate := dec("9.5")
	term := 24
	start := models.NewDate(date(2024, time.January, 10))

	// Имя и описание — не структурные условия
	assert.False(t, changesLoanTerms(UpdateLoanDTO{}))
	assert.False(t, changesLoanTerms(UpdateLoanDTO{Name: &name, Description: &description}))

	// Сумма, ставка, срок и дата открытия — структурные
	assert.True(t, changesLoanTerms(UpdateLoanDTO{LoanAmount: &amount}))
	assert.True(t, changesLoanTerms(UpdateLoanDTO{InterestRatePercent: &rate}))
	assert.True(t, changesLoanTerms(UpdateLoanDTO{LoanTerm: &term}))
	assert.True(t, changesLoanTerms(UpdateLoanDTO{StartDate: &start}))
}

func TestEnsureTermsMutable(t *testing.T) {
	amount := dec("500000")
	description := "Рефинансирование"

	// Структурное условие при существующем графике менять нельзя
	err := ensureTermsMutable(UpdateLoanDTO{LoanAmount: &amount}, 12)
	assert.ErrorIs(t, err, ErrImmutableLoanTerms)

	// Имя и описание разрешены и при существующем графике
	assert.NoError(t, ensureTermsMutable(UpdateLoanDTO{Description: &description}, 12))

	// Без графика структурные условия можно менять
	assert.NoError(t, ensureTermsMutable(UpdateLoanDTO{LoanAmount: &amount}, 0))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validateAmount("loan_amount", dec("1000000")))
	assert.NoError(t, validateAmount("loan_amount", dec("9999999999.99")))

	// Неположительные суммы
	assert.ErrorIs(t, validateAmount("loan_amount", dec("0")), ErrValidation)
	assert.ErrorIs(t, validateAmount("loan_amount", dec("-1")), ErrValidation)

	// Больше 10 цифр в целой части
	assert.ErrorIs(t, validateAmount("loan_amount", dec("12345678901")), ErrValidation)

	// Больше 2 знаков после запятой
	assert.ErrorIs(t, validateAmount("loan_amount", dec("10.123")), ErrValidation)
}

func TestValidateRate(t *testing.T) {
	assert.NoError(t, validateRate(dec("10.75")))
	assert.NoError(t, validateRate(dec("1.7625")))

	assert.ErrorIs(t, validateRate(dec("0")), ErrValidation)
	assert.ErrorIs(t, validateRate(dec("100")), ErrValidation)
	assert.ErrorIs(t, validateRate(dec("1.23456")), ErrValidation)
}
