package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// Хэширование "ожидающих" секретов (OTP-код, пригласительный токен).
// Параметры argon2id фиксированы: секреты короткоживущие, окно атаки — минуты.

var secretSalt = []byte("intranet-pending-secret")

func HashSecret(secret string) []byte {
	return argon2.IDKey([]byte(secret), secretSalt, 1, 64*1024, 1, 32)
}

// VerifySecret — сравнение с постоянным временем.
func VerifySecret(hash []byte, candidate string) bool {
	h := HashSecret(candidate)
	return subtle.ConstantTimeCompare(h, hash) == 1
}

// NewCode генерирует 6-значный числовой код (с ведущими нулями).
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewInviteToken генерирует высокоэнтропийный токен приглашения (64 hex-символа).
func NewInviteToken() (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}
