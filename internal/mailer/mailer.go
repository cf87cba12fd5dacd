package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/civicjose/intranet-sub000/internal/logs"
)

// Mailer — абстрактный канал уведомлений: "отправь письмо на адрес".
// Без встроенных ретраев: ошибка отправки возвращается вызывающему запросу.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP — реальная отправка через net/smtp (PLAIN auth, если задан username).
type SMTP struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(m.Host, m.Port)
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// Log — dev-режим: письмо уходит только в лог (smtp.enabled=false).
type Log struct{}

func (Log) Send(_ context.Context, to, subject, body string) error {
	logs.Logger.Infof("mail (log mode) to=%s subject=%q\n%s", to, subject, body)
	return nil
}
