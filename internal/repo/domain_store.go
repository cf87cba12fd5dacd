package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/civicjose/intranet-sub000/internal/models"
)

// DomainStore — allow-list корпоративных доменов. Подсистема только читает;
// наполнение — через Seed при старте (источник — конфиг администратора).
type DomainStore struct{ db *gorm.DB }

func NewDomainStore(db *gorm.DB) *DomainStore { return &DomainStore{db: db} }

func (s *DomainStore) IsAllowed(ctx context.Context, domain string) (bool, error) {
	var d models.AllowedDomain
	err := s.db.WithContext(ctx).
		Where("domain = ?", strings.ToLower(domain)).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Seed добавляет домены из конфига, не трогая уже существующие.
func (s *DomainStore) Seed(ctx context.Context, domains []string) error {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		var existing models.AllowedDomain
		err := s.db.WithContext(ctx).Where("domain = ?", d).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.WithContext(ctx).Create(&models.AllowedDomain{Domain: d}).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
