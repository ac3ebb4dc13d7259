package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"loanService/config"
	"loanService/models"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	config *config.Config
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		config: cfg,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendScheduleCreatedNotification отправляет уведомление о создании графика платежей
func (s *EmailService) SendScheduleCreatedNotification(to, loanName string, paymentsCount int) error {
	subject := "График платежей по кредиту создан"
	body := fmt.Sprintf(`
		<h2>График платежей создан</h2>
		<p>Кредит: %s</p>
		<p>Количество платежей: %d</p>
		<p>Дата: %s</p>
	`, loanName, paymentsCount, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendUpcomingPaymentReminder отправляет напоминание о предстоящем платеже
func (s *EmailService) SendUpcomingPaymentReminder(to, loanName string, payment models.LoanPayment) error {
	subject := "Напоминание о предстоящем платеже"
	body := fmt.Sprintf(`
		<h2>Приближается дата платежа</h2>
		<p>Кредит: %s</p>
		<p>Платеж №%d</p>
		<p>Дата платежа: %s</p>
		<p>Сумма платежа: %s</p>
		<p>Из них проценты: %s</p>
	`,
		loanName,
		payment.PaymentNumber,
		payment.PaymentDate.Format("02.01.2006"),
		payment.PaymentAmount,
		payment.InterestAmount,
	)

	return s.SendEmail(to, subject, body)
}
