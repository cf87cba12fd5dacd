package repo

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/civicjose/intranet-sub000/internal/models"
)

// In-memory реализация хранилищ (режим без БД и тесты).
// Конфликтующие записи по одной записи сериализуются мьютексом.

type MemUserStore struct {
	mu     sync.RWMutex
	nextID uint
	users  map[string]*models.User // ключ — email в нижнем регистре
}

func NewMemUserStore() *MemUserStore {
	return &MemUserStore{nextID: 1, users: make(map[string]*models.User)}
}

func (m *MemUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemUserStore) FindByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemUserStore) FindBySecretHash(_ context.Context, hash []byte) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if !u.IsVerified && len(u.SecretHash) > 0 && bytes.Equal(u.SecretHash, hash) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemUserStore) UpsertPending(_ context.Context, email string, secretHash []byte, expiresAt time.Time) error {
	email = NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		if u.IsVerified {
			return ErrDuplicate
		}
		u.SecretHash = secretHash
		u.SecretExpiresAt = &expiresAt
		u.UpdatedAt = time.Now().UTC()
		return nil
	}
	m.users[email] = &models.User{
		ID:              m.nextID,
		Email:           email,
		SecretHash:      secretHash,
		SecretExpiresAt: &expiresAt,
		CreatedAt:       time.Now().UTC(),
	}
	m.nextID++
	return nil
}

func (m *MemUserStore) Create(_ context.Context, u *models.User) error {
	email := NormalizeEmail(u.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return ErrDuplicate
	}
	u.ID = m.nextID
	u.Email = email
	u.CreatedAt = time.Now().UTC()
	m.nextID++
	cp := *u
	m.users[email] = &cp
	return nil
}

func (m *MemUserStore) CompleteRegistration(_ context.Context, id uint, passwordHash string, p ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != id || u.IsVerified {
			continue
		}
		u.PasswordHash = &passwordHash
		u.FirstName = p.FirstName
		u.LastName = p.LastName
		u.CompanyPhone = p.CompanyPhone
		if p.BirthDate != nil {
			d := datatypes.Date(*p.BirthDate)
			u.BirthDate = &d
		}
		u.IsVerified = true
		u.SecretHash = nil
		u.SecretExpiresAt = nil
		u.UpdatedAt = time.Now().UTC()
		return nil
	}
	return ErrNotFound
}

type MemDomainStore struct {
	mu      sync.RWMutex
	domains map[string]struct{}
}

func NewMemDomainStore() *MemDomainStore {
	return &MemDomainStore{domains: make(map[string]struct{})}
}

func (m *MemDomainStore) IsAllowed(_ context.Context, domain string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.domains[strings.ToLower(domain)]
	return ok, nil
}

func (m *MemDomainStore) Seed(_ context.Context, domains []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			m.domains[d] = struct{}{}
		}
	}
	return nil
}
