package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

type EmailSender struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

func NewEmailSender(host string, port int, from, username, password string) *EmailSender {
	if host == "" || from == "" {
		return nil
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		From:     from,
		Username: username,
		Password: password,
	}
}

// SendCredentials mails a newly created account its generated password.
func (es *EmailSender) SendCredentials(to, username, password string) error {
	subject := "Your workshop account"
	body := fmt.Sprintf("An account was created for you.\n\nUsername: %s\nTemporary password: %s\n\nPlease log in and change it.", username, password)
	return es.send([]string{to}, subject, body)
}

// SendLockoutAlert mails the admin when an account gets locked.
func (es *EmailSender) SendLockoutAlert(adminEmail, username string, attempts int, ip string) error {
	if adminEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Account locked: %s", username)
	body := fmt.Sprintf("Account %s was locked after %d failed login attempts.\n\nLast attempt from: %s", username, attempts, ip)
	return es.send([]string{adminEmail}, subject, body)
}

func (es *EmailSender) send(to []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		es.From, strings.Join(to, ", "), subject, body)

	addr := fmt.Sprintf("%s:%d", es.Host, es.Port)

	var auth smtp.Auth
	if es.Username != "" {
		auth = smtp.PlainAuth("", es.Username, es.Password, es.Host)
	}

	return smtp.SendMail(addr, auth, es.From, to, []byte(msg))
}
