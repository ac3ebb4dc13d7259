package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanPayment представляет один период графика платежей по кредиту.
// Денежные поля хранятся с двумя знаками после запятой, year_part — без
// округления: эта дробь участвует в расчете процентов.
type LoanPayment struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID           uint            `gorm:"column:loan_id;not null;uniqueIndex:uq_loan_payments_loan_id_payment_number;uniqueIndex:uq_loan_payments_loan_id_payment_date" json:"loan_id"`
	Loan             Loan            `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentNumber    int             `gorm:"column:payment_number;not null;uniqueIndex:uq_loan_payments_loan_id_payment_number" json:"payment_number"`
	PaymentDate      Date            `gorm:"column:payment_date;type:date;not null;uniqueIndex:uq_loan_payments_loan_id_payment_date" json:"payment_date"`
	PaymentAmount    decimal.Decimal `gorm:"column:payment_amount;type:numeric(12,2);not null" json:"payment_amount"`
	InterestAmount   decimal.Decimal `gorm:"column:interest_amount;type:numeric(12,2);not null" json:"interest_amount"`
	PrincipalAmount  decimal.Decimal `gorm:"column:principal_amount;type:numeric(12,2);not null" json:"principal_amount"`
	IncomingBalance  decimal.Decimal `gorm:"column:incoming_balance;type:numeric(12,2);not null" json:"incoming_balance"`
	RemainingBalance decimal.Decimal `gorm:"column:remaining_balance;type:numeric(12,2);not null" json:"remaining_balance"`
	YearPart         decimal.Decimal `gorm:"column:year_part;type:numeric(33,32);not null" json:"year_part"`
	DaysInYear       int             `gorm:"column:days_in_year;not null" json:"days_in_year"`
	CreatedAt        time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName возвращает имя таблицы для модели LoanPayment
func (LoanPayment) TableName() string {
	return "loan_payments"
}
