package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/civicjose/intranet-sub000/internal/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

// ProfileUpdate — поля профиля, записываемые при завершении регистрации.
type ProfileUpdate struct {
	FirstName    string
	LastName     string
	CompanyPhone string
	BirthDate    *time.Time
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindBySecretHash ищет незавершённую запись по хэшу секрета (пригласительный токен).
func (s *UserStore) FindBySecretHash(ctx context.Context, hash []byte) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("secret_hash = ? AND is_verified = ?", hash, false).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertPending создаёт или обновляет незавершённую запись: новый секрет
// перезаписывает старый (повторная отправка кода аннулирует предыдущий).
func (s *UserStore) UpsertPending(ctx context.Context, email string, secretHash []byte, expiresAt time.Time) error {
	email = NormalizeEmail(email)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		err := tx.Where("email = ?", email).First(&u).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = models.User{Email: email, SecretHash: secretHash, SecretExpiresAt: &expiresAt}
			return translateDup(tx.Create(&u).Error)
		case err != nil:
			return err
		}
		if u.IsVerified {
			return ErrDuplicate
		}
		return tx.Model(&u).Updates(map[string]any{
			"secret_hash":       secretHash,
			"secret_expires_at": expiresAt,
		}).Error
	})
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	u.Email = NormalizeEmail(u.Email)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		// гонка с параллельной вставкой: уникальный индекс по email
		// сработает вместо find-а, переводим в доменную ошибку
		return translateDup(tx.Create(u).Error)
	})
}

// translateDup переводит нарушение уникального индекса (гонка вставок,
// требует TranslateError у драйвера) в доменную ошибку ErrDuplicate.
func translateDup(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// CompleteRegistration — единственная точка, где аккаунт становится активным.
// Один UPDATE под условием is_verified = false: либо всё записалось, либо ничего.
// Повторный вызов (или гонка) не находит строку и возвращает ErrNotFound.
func (s *UserStore) CompleteRegistration(ctx context.Context, id uint, passwordHash string, p ProfileUpdate) error {
	updates := map[string]any{
		"password_hash":     passwordHash,
		"first_name":        p.FirstName,
		"last_name":         p.LastName,
		"company_phone":     p.CompanyPhone,
		"is_verified":       true,
		"secret_hash":       nil,
		"secret_expires_at": nil,
	}
	if p.BirthDate != nil {
		updates["birth_date"] = *p.BirthDate
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
