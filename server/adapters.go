package server

import (
	"github.com/civicjose/intranet-sub000/internal/mailer"
)

// newMailer выбирает канал уведомлений: SMTP при smtp.enabled,
// иначе письма пишутся в лог (локальная разработка).
func (a *App) newMailer() mailer.Mailer {
	if a.cfg.SMTP.Enabled {
		return &mailer.SMTP{
			Host:     a.cfg.SMTP.Host,
			Port:     a.cfg.SMTP.Port,
			From:     a.cfg.SMTP.From,
			Username: a.cfg.SMTP.Username,
			Password: a.cfg.SMTP.Password,
		}
	}
	return mailer.Log{}
}
