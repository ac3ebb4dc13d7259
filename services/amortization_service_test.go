package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanService/models"
)

// dec парсит десятичное число в тестах
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// testLoan создает кредит для тестов расчета графика
func testLoan(amount, ratePercent string, term int, start time.Time) *models.Loan {
	return &models.Loan{
		ID:                  1,
		UserID:              1,
		Name:                "Ипотека",
		StartDate:           models.NewDate(start),
		InterestRatePercent: dec(ratePercent),
		LoanAmount:          dec(amount),
		LoanTerm:            term,
	}
}

func TestAnnuityPayment(t *testing.T) {
	s := NewAmortizationService()

	// Классический пример: 100 000 под 12% годовых на 12 месяцев
	// дает аннуитетный платеж 8 884.88
	payment := s.AnnuityPayment(dec("100000"), dec("12"), 12)
	assert.True(t, payment.Equal(dec("8884.88")),
		"annuity payment = %s, want 8884.88", payment)
}

func TestYearFractionSameYear(t *testing.T) {
	s := NewAmortizationService()

	fraction, yearDays := s.YearFraction(date(2023, time.March, 10), date(2023, time.April, 10))

	assert.Equal(t, 365, yearDays)
	expected := decimal.NewFromInt(31).DivRound(decimal.NewFromInt(365), decimalScale)
	assert.True(t, fraction.Equal(expected), "fraction = %s, want %s", fraction, expected)
}

func TestYearFractionLeapYear(t *testing.T) {
	s := NewAmortizationService()

	fraction, yearDays := s.YearFraction(date(2024, time.January, 10), date(2024, time.February, 10))

	assert.Equal(t, 366, yearDays)
	expected := decimal.NewFromInt(31).DivRound(decimal.NewFromInt(366), decimalScale)
	assert.True(t, fraction.Equal(expected), "fraction = %s, want %s", fraction, expected)
}

func TestYearFractionAcrossYearBoundary(t *testing.T) {
	s := NewAmortizationService()

	// Период 2021-12-20 .. 2022-01-10: остаток декабря в 2021 году
	// (11 дней из 365) плюс 10-й день 2022 года (10 дней из 365)
	fraction, yearDays := s.YearFraction(date(2021, time.December, 20), date(2022, time.January, 10))

	assert.Equal(t, 365, yearDays)
	expected := decimal.NewFromInt(11).DivRound(decimal.NewFromInt(365), decimalScale).
		Add(decimal.NewFromInt(10).DivRound(decimal.NewFromInt(365), decimalScale))
	assert.True(t, fraction.Equal(expected), "fraction = %s, want %s", fraction, expected)
}

func TestCompletePlanSynthesizesMonthlyDates(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("1000000", "10.75", 12, date(2024, time.January, 10))

	plan, err := s.CompletePlan(nil, loan)
	require.NoError(t, err)
	require.Len(t, plan, 12)

	// Даты идут с шагом в календарный месяц от даты открытия
	assert.Equal(t, date(2024, time.February, 10), plan[0].Date)
	assert.Equal(t, date(2024, time.March, 10), plan[1].Date)
	assert.Equal(t, date(2024, time.December, 10), plan[11].Date)

	// Все суммы равны аннуитетному платежу
	annuity := s.AnnuityPayment(loan.LoanAmount, loan.InterestRatePercent, loan.LoanTerm)
	for i, entry := range plan {
		assert.True(t, entry.Amount.Equal(annuity), "payment %d amount = %s, want %s", i+1, entry.Amount, annuity)
	}
}

func TestCompletePlanMonthStepDrift(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("100000", "10", 2, date(2024, time.January, 31))

	plan, err := s.CompletePlan(nil, loan)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	// Шаг от 31 января — 31 день: дата уезжает на 2 марта
	assert.Equal(t, date(2024, time.March, 2), plan[0].Date)
	assert.Equal(t, date(2024, time.April, 2), plan[1].Date)
}

func TestCompletePlanKeepsFullySpecifiedEntries(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("100000", "10", 3, date(2024, time.January, 10))

	// Платежи переданы не по порядку: план сортирует их по дате
	d1 := models.NewDate(date(2024, time.February, 10))
	d2 := models.NewDate(date(2024, time.March, 10))
	d3 := models.NewDate(date(2024, time.April, 10))
	a1, a2, a3 := dec("40000"), dec("35000"), dec("30000")

	plan, err := s.CompletePlan([]PaymentOverride{
		{PaymentDate: &d3, PaymentAmount: &a3},
		{PaymentDate: &d1, PaymentAmount: &a1},
		{PaymentDate: &d2, PaymentAmount: &a2},
	}, loan)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	assert.Equal(t, d1.Time, plan[0].Date)
	assert.True(t, plan[0].Amount.Equal(a1))
	assert.Equal(t, d2.Time, plan[1].Date)
	assert.True(t, plan[1].Amount.Equal(a2))
	assert.Equal(t, d3.Time, plan[2].Date)
	assert.True(t, plan[2].Amount.Equal(a3))
}

func TestCompletePlanFillsMissingDate(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("100000", "10", 3, date(2024, time.January, 10))

	// Платеж без даты уходит в конец и получает синтезированную дату
	d1 := models.NewDate(date(2024, time.February, 15))
	a2 := dec("50000")

	plan, err := s.CompletePlan([]PaymentOverride{
		{PaymentAmount: &a2},
		{PaymentDate: &d1},
	}, loan)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	assert.Equal(t, d1.Time, plan[0].Date)
	// 15 февраля + 29 дней (февраль 2024) = 15 марта
	assert.Equal(t, date(2024, time.March, 15), plan[1].Date)
	assert.True(t, plan[1].Amount.Equal(a2))
}

func TestCompletePlanRejectsTooManyPayments(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("100000", "10", 2, date(2024, time.January, 10))

	_, err := s.CompletePlan(make([]PaymentOverride, 3), loan)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestCompletePlanRejectsDateBeforeLoanStart(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("100000", "10", 12, date(2024, time.January, 10))

	early := models.NewDate(date(2024, time.January, 9))
	_, err := s.CompletePlan([]PaymentOverride{{PaymentDate: &early}}, loan)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestBuildScheduleStandardLoan(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("1000000", "10.75", 12, date(2024, time.January, 10))

	schedule, err := s.BuildSchedule(nil, loan)
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	first := schedule[0]
	assert.Equal(t, 1, first.PaymentNumber)
	assert.Equal(t, date(2024, time.February, 10), first.PaymentDate.Time)
	assert.True(t, first.IncomingBalance.Equal(dec("1000000")))
	// 1 000 000 * 10.75% * 31/366
	assert.True(t, first.InterestAmount.Equal(dec("9105.19")),
		"first interest = %s, want 9105.19", first.InterestAmount)
	assert.Equal(t, 366, first.DaysInYear)

	// Последний платеж по сроку закрывает задолженность ровно в ноль
	last := schedule[11]
	assert.Equal(t, 12, last.PaymentNumber)
	assert.True(t, last.RemainingBalance.IsZero(),
		"last remaining balance = %s, want 0", last.RemainingBalance)
	assert.True(t, last.PaymentAmount.Equal(last.InterestAmount.Add(last.IncomingBalance)))
}

func TestBuildScheduleBalanceChain(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("1000000", "10.75", 12, date(2024, time.January, 10))

	schedule, err := s.BuildSchedule(nil, loan)
	require.NoError(t, err)

	// Входящий остаток каждого периода равен исходящему предыдущего,
	// платеж распадается на проценты и основной долг без остатка
	previous := loan.LoanAmount
	principalTotal := decimal.Zero
	for _, payment := range schedule {
		assert.True(t, payment.IncomingBalance.Equal(previous),
			"payment %d incoming = %s, want %s", payment.PaymentNumber, payment.IncomingBalance, previous)
		assert.True(t, payment.PaymentAmount.Equal(payment.InterestAmount.Add(payment.PrincipalAmount)))
		assert.True(t, payment.RemainingBalance.Equal(payment.IncomingBalance.Sub(payment.PrincipalAmount)))
		previous = payment.RemainingBalance
		principalTotal = principalTotal.Add(payment.PrincipalAmount)
	}

	// Сумма погашений основного долга равна сумме кредита
	assert.True(t, principalTotal.Equal(loan.LoanAmount),
		"principal total = %s, want %s", principalTotal, loan.LoanAmount)
}

func TestBuildScheduleEarlyPayoff(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("1000", "12", 12, date(2024, time.January, 10))

	// Первый платеж больше остатка с процентами: он ограничивается суммой
	// закрытия, а остальные периоды плана отбрасываются
	big := dec("2000")
	schedule, err := s.BuildSchedule([]PaymentOverride{{PaymentAmount: &big}}, loan)
	require.NoError(t, err)
	require.Len(t, schedule, 1)

	payment := schedule[0]
	// 1 000 * 12% * 31/366 = 10.16
	assert.True(t, payment.InterestAmount.Equal(dec("10.16")),
		"interest = %s, want 10.16", payment.InterestAmount)
	assert.True(t, payment.PaymentAmount.Equal(dec("1010.16")),
		"payment = %s, want 1010.16", payment.PaymentAmount)
	assert.True(t, payment.PrincipalAmount.Equal(dec("1000")))
	assert.True(t, payment.RemainingBalance.IsZero())
}

func TestComputeScheduleRoundsInterestHalfToEven(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("1000", "1.7625", 12, date(2023, time.January, 10))

	// 73 дня — ровно пятая часть года: проценты до округления равны точно
	// 3.525. Банковское округление дает 3.52 (до четной цифры); округление
	// от нуля дало бы 3.53
	plan := []PlanEntry{{Date: date(2023, time.March, 24), Amount: dec("100")}}
	schedule, err := s.ComputeSchedule(plan, loan)
	require.NoError(t, err)
	require.Len(t, schedule, 1)

	assert.True(t, schedule[0].InterestAmount.Equal(dec("3.52")),
		"interest = %s, want 3.52", schedule[0].InterestAmount)
}

func TestBuildScheduleRejectsPaymentBelowInterest(t *testing.T) {
	s := NewAmortizationService()
	loan := testLoan("1000000", "10.75", 12, date(2024, time.January, 10))

	// Платеж меньше начисленных процентов недопустим
	small := dec("100")
	_, err := s.BuildSchedule([]PaymentOverride{{PaymentAmount: &small}}, loan)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}
