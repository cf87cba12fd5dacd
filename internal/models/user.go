package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const RoleAdmin = 1

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// email хранится в нижнем регистре, сравнение всегда по lower-case
	Email        string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash *string `gorm:"size:255" json:"-"` // nil, пока пароль не установлен

	FirstName    string          `gorm:"size:128" json:"first_name"`
	LastName     string          `gorm:"size:128" json:"last_name"`
	CompanyPhone string          `gorm:"size:64"  json:"company_phone,omitempty"`
	BirthDate    *datatypes.Date `json:"birth_date,omitempty"`

	RoleID     int  `gorm:"default:2;not null" json:"role_id"` // 1 = администратор
	IsVerified bool `gorm:"default:false;not null" json:"is_verified"`

	// общий слот для секрета "в ожидании": хэш OTP-кода или пригласительного токена
	SecretHash      []byte     `gorm:"size:64" json:"-"`
	SecretExpiresAt *time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

type AllowedDomain struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Domain string `gorm:"uniqueIndex;size:255;not null" json:"domain"` // в нижнем регистре
}

func (AllowedDomain) TableName() string { return "allowed_domains" }
