package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"loanService/models"
)

// decimalScale — точность промежуточных делений. Дробная часть года хранится
// с 32 знаками, чтобы последующее округление процентов не искажалось.
const decimalScale = 32

// Денежные суммы округляются до 2 знаков банковским округлением
// (round-half-to-even). Это часть публичного контракта: при округлении
// half-up итоговая сумма погашения в краевых случаях сместилась бы на копейку.
const moneyScale = 2

// PaymentOverride представляет частично заданный пользователем платеж.
// Дата и сумма опциональны: недостающие значения дополняются планировщиком.
type PaymentOverride struct {
	PaymentDate   *models.Date     `json:"payment_date"`
	PaymentAmount *decimal.Decimal `json:"payment_amount"`
}

// PlanEntry представляет полностью разрешенный платеж плана: дата и сумма
type PlanEntry struct {
	Date   time.Time
	Amount decimal.Decimal
}

// AmortizationService рассчитывает графики аннуитетных платежей.
// Сервис не имеет состояния: все методы — чистые функции, их можно
// вызывать конкурентно для разных кредитов без синхронизации.
type AmortizationService struct{}

// NewAmortizationService создает новый экземпляр AmortizationService
func NewAmortizationService() *AmortizationService {
	return &AmortizationService{}
}

// daysInMonth возвращает число дней в месяце даты
func daysInMonth(t time.Time) int {
	// нулевой день следующего месяца — последний день текущего
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// isLeapYear сообщает, является ли год високосным
func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysInYear возвращает количество дней в году: 366 или 365
func daysInYear(year int) int {
	if isLeapYear(year) {
		return 366
	}
	return 365
}

// nextPaymentDate сдвигает дату на число дней в ее месяце. Для графиков,
// выровненных по месяцам, это дает то же число следующего месяца; для
// чисел больше 28 дата может дрейфовать — поведение сохранено намеренно.
func nextPaymentDate(d time.Time) time.Time {
	return d.AddDate(0, 0, daysInMonth(d))
}

// YearFraction возвращает долю года между двумя датами и количество дней
// в году текущей даты. Если даты лежат в разных календарных годах, доля
// складывается из остатка месяца предыдущей даты в ее году и номера дня
// текущей даты в ее году — каждая часть делится на длину своего года.
func (s *AmortizationService) YearFraction(previous, current time.Time) (decimal.Decimal, int) {
	currentYearDays := daysInYear(current.Year())

	if previous.Year() != current.Year() {
		previousYearDays := daysInYear(previous.Year())
		previousPart := decimal.NewFromInt(int64(daysInMonth(previous) - previous.Day())).
			DivRound(decimal.NewFromInt(int64(previousYearDays)), decimalScale)
		currentPart := decimal.NewFromInt(int64(current.Day())).
			DivRound(decimal.NewFromInt(int64(currentYearDays)), decimalScale)
		return previousPart.Add(currentPart), currentYearDays
	}

	days := int64(current.Sub(previous).Hours() / 24)
	fraction := decimal.NewFromInt(days).
		DivRound(decimal.NewFromInt(int64(currentYearDays)), decimalScale)
	return fraction, currentYearDays
}

// AnnuityPayment рассчитывает размер фиксированного аннуитетного платежа:
// payment = P * (r * (1+r)^n) / ((1+r)^n - 1), где r — месячная ставка
func (s *AmortizationService) AnnuityPayment(amount, ratePercent decimal.Decimal, termMonths int) decimal.Decimal {
	monthlyRate := ratePercent.DivRound(decimal.NewFromInt(1200), decimalScale)
	one := decimal.NewFromInt(1)
	compound := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(termMonths)))

	payment := amount.Mul(monthlyRate.Mul(compound)).
		DivRound(compound.Sub(one), decimalScale)
	return payment.RoundBank(moneyScale)
}

// CompletePlan дополняет разреженный список платежей пользователя до полного
// плана длиной в срок кредита. Недостающие даты синтезируются с шагом в
// календарный месяц от предыдущей даты, недостающие суммы — аннуитетным
// платежом. Платежей больше срока кредита быть не может, а самый ранний
// платеж не может быть раньше даты открытия кредита.
func (s *AmortizationService) CompletePlan(overrides []PaymentOverride, loan *models.Loan) ([]PlanEntry, error) {
	term := loan.LoanTerm
	if len(overrides) > term {
		return nil, fmt.Errorf(
			"%w: количество переданных платежей (%d) не может превышать срок кредита (%d)",
			ErrInvalidSchedule, len(overrides), term)
	}

	// Сортируем по дате (исходный порядок не является инвариантом);
	// платежи без даты стабильно уходят в конец и получают синтезированную дату
	sorted := make([]PaymentOverride, len(overrides))
	copy(sorted, overrides)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].PaymentDate, sorted[j].PaymentDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Time.Before(dj.Time)
		}
	})

	startDate := loan.StartDate.Time
	if len(sorted) > 0 && sorted[0].PaymentDate != nil && sorted[0].PaymentDate.Time.Before(startDate) {
		return nil, fmt.Errorf(
			"%w: дата платежа не может быть раньше даты открытия кредита",
			ErrInvalidSchedule)
	}

	defaultAmount := s.AnnuityPayment(loan.LoanAmount, loan.InterestRatePercent, term)

	plan := make([]PlanEntry, 0, term)
	previousDate := startDate
	for i := 0; i < term; i++ {
		entry := PlanEntry{Amount: defaultAmount}
		if i < len(sorted) {
			if sorted[i].PaymentDate != nil {
				entry.Date = sorted[i].PaymentDate.Time
			} else {
				entry.Date = nextPaymentDate(previousDate)
			}
			if sorted[i].PaymentAmount != nil {
				entry.Amount = *sorted[i].PaymentAmount
			}
		} else {
			entry.Date = nextPaymentDate(previousDate)
		}
		plan = append(plan, entry)
		previousDate = entry.Date
	}

	return plan, nil
}

// ComputeSchedule рассчитывает график платежей по готовому плану: для каждого
// периода — разбивку на проценты и основной долг и остаток задолженности.
// Расчет детерминирован: одинаковый вход дает одинаковый результат.
func (s *AmortizationService) ComputeSchedule(plan []PlanEntry, loan *models.Loan) ([]models.LoanPayment, error) {
	rate := loan.InterestRatePercent.DivRound(decimal.NewFromInt(100), decimalScale)
	remainingBalance := loan.LoanAmount
	previousDate := loan.StartDate.Time

	schedule := make([]models.LoanPayment, 0, len(plan))
	for index, entry := range plan {
		// Кредит погашен досрочно: оставшиеся платежи плана отбрасываются
		if remainingBalance.IsZero() {
			break
		}

		paymentNumber := index + 1
		incomingBalance := remainingBalance

		yearPart, yearDays := s.YearFraction(previousDate, entry.Date)
		interestAmount := incomingBalance.Mul(rate).Mul(yearPart).RoundBank(moneyScale)

		paymentAmount := entry.Amount
		if interestAmount.GreaterThan(paymentAmount) {
			return nil, fmt.Errorf(
				"%w: сумма процентов не может превышать сумму платежа: платеж на %s равен %s, а проценты по нему — %s",
				ErrInvalidSchedule, entry.Date.Format(models.DateLayout), paymentAmount, interestAmount)
		}

		// Переплата сверх остатка и последний платеж по сроку
		// закрывают задолженность ровно в ноль
		if paymentAmount.GreaterThan(interestAmount.Add(incomingBalance)) || paymentNumber == loan.LoanTerm {
			paymentAmount = interestAmount.Add(incomingBalance)
		}

		principalAmount := paymentAmount.Sub(interestAmount)
		remainingBalance = incomingBalance.Sub(principalAmount)

		schedule = append(schedule, models.LoanPayment{
			LoanID:           loan.ID,
			PaymentNumber:    paymentNumber,
			PaymentDate:      models.NewDate(entry.Date),
			PaymentAmount:    paymentAmount,
			InterestAmount:   interestAmount,
			PrincipalAmount:  principalAmount,
			IncomingBalance:  incomingBalance,
			RemainingBalance: remainingBalance,
			YearPart:         yearPart,
			DaysInYear:       yearDays,
		})
		previousDate = entry.Date
	}

	return schedule, nil
}

// BuildSchedule дополняет план и рассчитывает по нему график платежей
func (s *AmortizationService) BuildSchedule(overrides []PaymentOverride, loan *models.Loan) ([]models.LoanPayment, error) {
	plan, err := s.CompletePlan(overrides, loan)
	if err != nil {
		return nil, err
	}
	return s.ComputeSchedule(plan, loan)
}
