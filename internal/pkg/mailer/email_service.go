package mailer

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendRecoveryAlert(toEmail string, recovered []string, threshold time.Duration) error
	SendCriticalFailureAlert(toEmail, conversationId, stage, reason string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendRecoveryAlert(toEmail string, recovered []string, threshold time.Duration) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[Pipeline] %d stuck conversation(s) recovered", len(recovered)))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Stuck Conversation Recovery</h2>
			<p>The recovery sweep reset <strong>%d</strong> conversation(s) that had been stuck in processing for more than %s:</p>
			<pre>%s</pre>
			<p>They have been returned to pending and will be retried on the next pipeline run.</p>
		</div>
	`, len(recovered), threshold, strings.Join(recovered, "\n"))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send recovery alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Recovery alert sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendCriticalFailureAlert(toEmail, conversationId, stage, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[Pipeline] Critical stage failure")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Critical Stage Failure</h2>
			<p>Conversation <strong>%s</strong> failed at stage <strong>%s</strong>:</p>
			<pre>%s</pre>
			<p>The run was rolled back and the conversation is marked failed. Manual attention required.</p>
		</div>
	`, conversationId, stage, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send critical failure alert to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
