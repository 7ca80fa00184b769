package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"gba-rental/internal/config"
	"gba-rental/internal/logger"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// ErrNoEmailProvider is returned when neither SendGrid nor SMTP is
// configured.
var ErrNoEmailProvider = errors.New("no email provider configured")

// EmailSender delivers a single rendered email.
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

// DualProviderSender tries SendGrid first and falls back to plain SMTP
// when SendGrid is unconfigured or fails.
type DualProviderSender struct {
	cfg    config.EmailConfig
	client *http.Client
	logger *logger.Logger
}

func NewDualProviderSender(cfg config.EmailConfig, log *logger.Logger) *DualProviderSender {
	return &DualProviderSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: log,
	}
}

func (s *DualProviderSender) Send(to, subject, htmlBody string) error {
	if s.cfg.SendGridAPIKey != "" {
		err := s.sendViaSendGrid(to, subject, htmlBody)
		if err == nil {
			s.logger.LogEmail("SEND", to, fmt.Sprintf("delivered via SendGrid: %s", subject))
			return nil
		}
		s.logger.Warn("EMAIL", fmt.Sprintf("SendGrid delivery to %s failed, trying SMTP: %v", to, err))
	}

	if s.cfg.SMTPUsername != "" && s.cfg.SMTPPassword != "" {
		if err := s.sendViaSMTP(to, subject, htmlBody); err != nil {
			s.logger.Error("EMAIL", fmt.Sprintf("SMTP delivery to %s failed: %v", to, err))
			return err
		}
		s.logger.LogEmail("SEND", to, fmt.Sprintf("delivered via SMTP: %s", subject))
		return nil
	}

	s.logger.Error("EMAIL", "No email provider configured")
	return ErrNoEmailProvider
}

type sendGridPayload struct {
	Personalizations []struct {
		To []map[string]string `json:"to"`
	} `json:"personalizations"`
	From    map[string]string `json:"from"`
	Subject string            `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (s *DualProviderSender) sendViaSendGrid(to, subject, htmlBody string) error {
	payload := sendGridPayload{
		From:    map[string]string{"email": s.cfg.FromAddress, "name": s.cfg.FromName},
		Subject: subject,
	}
	payload.Personalizations = []struct {
		To []map[string]string `json:"to"`
	}{{To: []map[string]string{{"email": to}}}}
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: htmlBody}}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, sendGridEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.SendGridAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *DualProviderSender) sendViaSMTP(to, subject, htmlBody string) error {
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.FromName, s.cfg.FromAddress, to, subject, htmlBody)

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{to}, []byte(msg))
}
