package identity

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 20; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code) // включая ведущие нули
	}
}

func TestNewInviteTokenEntropy(t *testing.T) {
	a, err := NewInviteToken()
	require.NoError(t, err)
	b, err := NewInviteToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashSecretRoundTrip(t *testing.T) {
	h := HashSecret("123456")
	assert.True(t, VerifySecret(h, "123456"))
	assert.False(t, VerifySecret(h, "123457"))
	assert.False(t, VerifySecret(nil, "123456"))
}

func TestPasswordPolicy(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"passw0rd", true},
		{"a1b2c3d4", true},
		{"пароль12", true}, // буквы не только латинские
		{"short1", false},
		{"пароль1", false}, // 7 символов, хотя байт больше восьми
		{"lettersonly", false},
		{"12345678", false},
		{"", false},
		{strings.Repeat("a", 80) + "1", false}, // длиннее лимита bcrypt
		{strings.Repeat("a", 71) + "1", true},  // ровно 72 байта — проходит
	}
	for _, c := range cases {
		err := checkPasswordPolicy(c.pw)
		if c.ok {
			assert.NoError(t, err, "password %q", c.pw)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, "password %q", c.pw)
		}
	}
}

func TestPasswordHashVerify(t *testing.T) {
	h, err := hashPassword("passw0rd1")
	require.NoError(t, err)
	assert.True(t, verifyPassword(h, "passw0rd1"))
	assert.False(t, verifyPassword(h, "passw0rd2"))
}
