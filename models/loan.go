package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan представляет кредит пользователя. Условия кредита (сумма, ставка, срок,
// дата открытия) фиксируются при создании графика платежей и после этого не меняются.
type Loan struct {
	ID                  uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              uint            `gorm:"column:user_id;not null;index;uniqueIndex:uq_loans_user_id_name" json:"user_id"`
	User                User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name                string          `gorm:"column:name;not null;size:100;uniqueIndex:uq_loans_user_id_name" json:"name"`
	Description         string          `gorm:"column:description;size:255" json:"description,omitempty"`
	StartDate           Date            `gorm:"column:start_date;type:date;not null" json:"start_date"`
	InterestRatePercent decimal.Decimal `gorm:"column:interest_rate_percent;type:numeric(6,4);not null" json:"interest_rate_percent"`
	LoanAmount          decimal.Decimal `gorm:"column:loan_amount;type:numeric(12,2);not null" json:"loan_amount"`
	LoanTerm            int             `gorm:"column:loan_term;not null" json:"loan_term"`
	Payments            []LoanPayment   `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt           time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName возвращает имя таблицы для модели Loan
func (Loan) TableName() string {
	return "loans"
}
