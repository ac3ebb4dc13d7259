package services

import (
	"time"

	"gorm.io/gorm"

	"loanService/config"
	"loanService/models"
	"loanService/utils"
)

// PaymentSchedulerService периодически напоминает пользователям о
// приближающихся платежах. Планировщик только читает графики: графики
// создаются и удаляются целиком и никогда не редактируются по частям.
type PaymentSchedulerService struct {
	db     *gorm.DB
	email  *EmailService
	config *config.Config
	ticker *time.Ticker
	done   chan struct{}
}

// NewPaymentSchedulerService создает новый экземпляр PaymentSchedulerService
func NewPaymentSchedulerService(db *gorm.DB, email *EmailService, cfg *config.Config) *PaymentSchedulerService {
	return &PaymentSchedulerService{
		db:     db,
		email:  email,
		config: cfg,
	}
}

// Start запускает планировщик напоминаний
func (s *PaymentSchedulerService) Start() {
	interval := time.Duration(s.config.Reminder.IntervalHours) * time.Hour
	s.ticker = time.NewTicker(interval)
	s.done = make(chan struct{})
	go func() {
		for {
			select {
			case <-s.ticker.C:
				if err := s.sendReminders(); err != nil {
					utils.LogError("Ошибка при отправке напоминаний о платежах: %v", err)
				}
			case <-s.done:
				return
			}
		}
	}()
}

// Stop останавливает планировщик; повторный вызов безопасен
func (s *PaymentSchedulerService) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
}

// sendReminders отправляет напоминания о платежах, дата которых наступает
// в ближайшие config.Reminder.Days дней
func (s *PaymentSchedulerService) sendReminders() error {
	now := time.Now()
	until := now.AddDate(0, 0, s.config.Reminder.Days)

	// Получаем платежи с приближающейся датой вместе с кредитом и владельцем
	var payments []models.LoanPayment
	if err := s.db.
		Where("payment_date >= ? AND payment_date <= ?", now, until).
		Preload("Loan").
		Preload("Loan.User").
		Find(&payments).Error; err != nil {
		return err
	}

	for _, payment := range payments {
		if payment.Loan.User.Email == "" {
			continue
		}
		if err := s.email.SendUpcomingPaymentReminder(
			payment.Loan.User.Email,
			payment.Loan.Name,
			payment,
		); err != nil {
			// Логируем и продолжаем: неотправленное письмо не должно
			// останавливать рассылку остальных
			utils.LogError("Ошибка при отправке напоминания по кредиту %d: %v", payment.LoanID, err)
		}
	}

	return nil
}
