package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/civicjose/intranet-sub000/internal/logs"
	"github.com/civicjose/intranet-sub000/internal/mailer"
	"github.com/civicjose/intranet-sub000/internal/models"
	"github.com/civicjose/intranet-sub000/internal/repo"
	"github.com/civicjose/intranet-sub000/internal/session"
)

// UserStore — контракт хранилища учётных записей, который нужен сервису.
// Реализации: repo.UserStore (gorm) и repo.MemUserStore.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindBySecretHash(ctx context.Context, hash []byte) (*models.User, error)
	UpsertPending(ctx context.Context, email string, secretHash []byte, expiresAt time.Time) error
	Create(ctx context.Context, u *models.User) error
	CompleteRegistration(ctx context.Context, id uint, passwordHash string, p repo.ProfileUpdate) error
}

// DomainStore — allow-list доменов, только чтение (+Seed при старте).
type DomainStore interface {
	IsAllowed(ctx context.Context, domain string) (bool, error)
}

type Service struct {
	users    UserStore
	domains  DomainStore
	mail     mailer.Mailer
	sessions *session.Manager

	codeTTL   time.Duration
	inviteTTL time.Duration
	baseURL   string

	now func() time.Time // подменяется в тестах
}

func New(users UserStore, domains DomainStore, mail mailer.Mailer, sessions *session.Manager,
	codeTTL, inviteTTL time.Duration, baseURL string) *Service {
	return &Service{
		users:     users,
		domains:   domains,
		mail:      mail,
		sessions:  sessions,
		codeTTL:   codeTTL,
		inviteTTL: inviteTTL,
		baseURL:   baseURL,
		now:       time.Now,
	}
}

// CheckStatus — исход CheckEmail.
type CheckStatus string

const (
	StatusUserExists       CheckStatus = "user_exists"
	StatusVerificationSent CheckStatus = "verification_sent"
)

func emailDomain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// CheckEmail — гейт по домену и выдача одноразового кода.
// Повторный вызов для той же почты выпускает новый код и аннулирует старый.
func (s *Service) CheckEmail(ctx context.Context, email string) (CheckStatus, error) {
	email = repo.NormalizeEmail(email)
	dom := emailDomain(email)
	if dom == "" {
		return "", ErrInvalidRequest
	}
	ok, err := s.domains.IsAllowed(ctx, dom)
	if err != nil {
		return "", err
	}
	if !ok {
		// домен не разрешён: ни записи, ни кода, ни письма
		return "", ErrForbiddenDomain
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}
	if u != nil && u.IsVerified {
		return StatusUserExists, nil
	}

	code, err := NewCode()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.codeTTL)
	if err := s.users.UpsertPending(ctx, email, HashSecret(code), expires); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// гонка с параллельной верификацией: запись уже активна
			return StatusUserExists, nil
		}
		return "", err
	}
	// письмо — только после успешной записи; ошибка отправки валит запрос,
	// запись остаётся (повторная отправка перевыпустит код)
	subject, body := mailer.VerificationMail(code)
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		logs.Logger.Errorf("identity: verification mail to %s: %v", email, err)
		return "", ErrMailSend
	}
	return StatusVerificationSent, nil
}

// VerifyCode сверяет код с хэшем. Успех НЕ гасит код и не верифицирует
// запись: это происходит только при завершении регистрации.
func (s *Service) VerifyCode(ctx context.Context, email, code string) error {
	u, err := s.users.FindByEmail(ctx, repo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidRequest
		}
		return err
	}
	if u.IsVerified || len(u.SecretHash) == 0 {
		return ErrInvalidRequest
	}
	if u.SecretExpiresAt == nil || s.now().After(*u.SecretExpiresAt) {
		return ErrCodeExpired
	}
	if !VerifySecret(u.SecretHash, code) {
		return ErrInvalidCode
	}
	return nil
}

// RegistrationInput — данные завершения регистрации. Ровно одно из полей
// Email (OTP-путь) / Token (приглашение) должно быть заполнено.
type RegistrationInput struct {
	Email        string
	Token        string
	Password     string
	FirstName    string
	LastName     string
	CompanyPhone string
	BirthDate    *time.Time
}

// CompleteRegistration — единственный переход записи в активное состояние.
// Возвращает сессионный токен (немедленный вход).
func (s *Service) CompleteRegistration(ctx context.Context, in RegistrationInput) (string, error) {
	if err := checkPasswordPolicy(in.Password); err != nil {
		return "", err
	}

	var u *models.User
	var err error
	switch {
	case in.Token != "":
		u, err = s.users.FindBySecretHash(ctx, HashSecret(in.Token))
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return "", ErrInvalidRequest
			}
			return "", err
		}
		if u.SecretExpiresAt == nil || s.now().After(*u.SecretExpiresAt) {
			return "", ErrTokenExpired
		}
	case in.Email != "":
		u, err = s.users.FindByEmail(ctx, repo.NormalizeEmail(in.Email))
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return "", ErrInvalidRequest
			}
			return "", err
		}
	default:
		return "", ErrInvalidRequest
	}
	if u.IsVerified {
		return "", ErrInvalidRequest
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", err
	}
	err = s.users.CompleteRegistration(ctx, u.ID, hash, repo.ProfileUpdate{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CompanyPhone: in.CompanyPhone,
		BirthDate:    in.BirthDate,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// гонка: кто-то завершил первым
			return "", ErrInvalidRequest
		}
		return "", err
	}
	return s.sessions.Issue(u.ID, u.RoleID)
}

// Login — вход по паролю. Неизвестная почта, отсутствующий пароль и
// несовпадение дают один и тот же ответ.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, repo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if u.PasswordHash == nil || !verifyPassword(*u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	if !u.IsVerified {
		return "", ErrNotVerified
	}
	return s.sessions.Issue(u.ID, u.RoleID)
}

// CreateMode — способ заведения пользователя администратором.
type CreateMode string

const (
	ModeInvite CreateMode = "invite" // письмо с setup-ссылкой, токен на 24 часа
	ModeDirect CreateMode = "direct" // пароль задаёт администратор, без письма
)

type CreateInput struct {
	Email     string
	FirstName string
	LastName  string
	RoleID    int
	Mode      CreateMode
	Password  string // только для ModeDirect
}

// CreateUser — административное заведение учётной записи: приглашение
// с setup-токеном либо прямое создание с паролем.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*models.User, error) {
	email := repo.NormalizeEmail(in.Email)

	switch in.Mode {
	case ModeInvite:
		token, err := NewInviteToken()
		if err != nil {
			return nil, err
		}
		expires := s.now().Add(s.inviteTTL)
		u := &models.User{
			Email:           email,
			FirstName:       in.FirstName,
			LastName:        in.LastName,
			RoleID:          in.RoleID,
			SecretHash:      HashSecret(token),
			SecretExpiresAt: &expires,
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return nil, ErrDuplicateEmail
			}
			return nil, err
		}
		subject, body := mailer.InviteMail(s.baseURL, token)
		if err := s.mail.Send(ctx, email, subject, body); err != nil {
			logs.Logger.Errorf("identity: invite mail to %s: %v", email, err)
			return nil, ErrMailSend
		}
		return u, nil

	case ModeDirect:
		if err := checkPasswordPolicy(in.Password); err != nil {
			return nil, err
		}
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u := &models.User{
			Email:        email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			RoleID:       in.RoleID,
			PasswordHash: &hash,
			IsVerified:   true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return nil, ErrDuplicateEmail
			}
			return nil, err
		}
		return u, nil

	default:
		return nil, ErrInvalidRequest
	}
}

// SetupInfo — данные для префилла формы завершения приглашения.
func (s *Service) SetupInfo(ctx context.Context, token string) (*models.User, error) {
	u, err := s.users.FindBySecretHash(ctx, HashSecret(token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRequest
		}
		return nil, err
	}
	if u.SecretExpiresAt == nil || s.now().After(*u.SecretExpiresAt) {
		return nil, ErrTokenExpired
	}
	return u, nil
}

// WithNow подменяет источник времени (тесты истечения кодов и токенов).
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}
