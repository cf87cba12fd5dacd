package identity

import "errors"

// Таксономия ошибок подсистемы. Всё гасится на границе запроса (4xx),
// сервер ничего не ретраит.
var (
	ErrForbiddenDomain = errors.New("email domain is not allowed")
	ErrDuplicateEmail  = errors.New("user with this email already exists")
	// ErrInvalidRequest намеренно неоднозначна: "нет такой записи" и "уже
	// завершено" снаружи неразличимы, чтобы не раскрывать наличие аккаунта.
	ErrInvalidRequest     = errors.New("invalid request")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrTokenExpired       = errors.New("setup token expired")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")
	ErrMailSend           = errors.New("notification send failed")
)
