package services

import (
	"fmt"
	"time"

	"dolgovnik/config"

	"gopkg.in/gomail.v2"
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

// SendDebtPaidNotification отправляет уведомление о полном погашении долга
func (s *EmailService) SendDebtPaidNotification(to, debtorName, formattedAmount string) error {
	subject := "Долг полностью погашен"
	body := fmt.Sprintf(`
		<h2>Долг погашен</h2>
		<p>Должник: %s</p>
		<p>Сумма: %s</p>
		<p>Дата: %s</p>
		<p>Запись о долге закрыта.</p>
	`, debtorName, formattedAmount, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendPasswordResetEmail отправляет письмо со ссылкой для сброса пароля
func (s *EmailService) SendPasswordResetEmail(to, token string) error {
	subject := "Сброс пароля"
	body := fmt.Sprintf(`
		<h2>Сброс пароля</h2>
		<p>Для сброса пароля используйте токен:</p>
		<p><b>%s</b></p>
		<p>Токен действует один час. Если вы не запрашивали сброс, проигнорируйте это письмо.</p>
	`, token)

	return s.SendEmail(to, subject, body)
}

// SendOverdueDigest отправляет сводку по просроченным долгам
func (s *EmailService) SendOverdueDigest(to string, lines []string) error {
	subject := "Напоминание о просроченных долгах"
	body := "<h2>Просроченные долги</h2><ul>"
	for _, line := range lines {
		body += fmt.Sprintf("<li>%s</li>", line)
	}
	body += "</ul>"

	return s.SendEmail(to, subject, body)
}
