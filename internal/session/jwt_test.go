package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(ttl time.Duration, at time.Time) *Manager {
	m := NewManager("test-secret", ttl)
	m.now = func() time.Time { return at }
	return m
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(15*time.Minute, t0)

	token, err := m.Issue(42, 1)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, 1, claims.RoleID)
	assert.Equal(t, t0.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyExpired(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(15*time.Minute, t0)
	token, err := m.Issue(7, 2)
	require.NoError(t, err)

	// простой дольше окна
	m.now = func() time.Time { return t0.Add(16 * time.Minute) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTampered(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(15*time.Minute, t0)
	token, err := m.Issue(7, 2)
	require.NoError(t, err)

	_, err = m.Verify(token + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// токен, подписанный другим секретом
	other := NewManager("other-secret", 15*time.Minute)
	foreign, err := other.Issue(7, 2)
	require.NoError(t, err)
	_, err = m.Verify(foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

// Скользящее окно: непрерывная активность продлевает сессию бесконечно.
func TestSlidingWindowReissue(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(15*time.Minute, t0)
	token, err := m.Issue(1, 2)
	require.NoError(t, err)

	// t0+14m: старый токен ещё жив, перевыпускаем
	m.now = func() time.Time { return t0.Add(14 * time.Minute) }
	claims, err := m.Verify(token)
	require.NoError(t, err)
	token2, err := m.Issue(claims.UserID, claims.RoleID)
	require.NoError(t, err)

	// t0+28m: исходный мёртв, перевыпущенный жив
	m.now = func() time.Time { return t0.Add(28 * time.Minute) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = m.Verify(token2)
	assert.NoError(t, err)
}
