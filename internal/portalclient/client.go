// Package portalclient — Go-клиент портала с прозрачным скользящим
// продлением сессии: токен цепляется к каждому запросу, перевыпущенный
// забирается из заголовка ответа, любой 401 сбрасывает сессию локально.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/civicjose/intranet-sub000/internal/authapi"
	"github.com/civicjose/intranet-sub000/internal/session"
)

// TokenHolder — текущий токен сессии. Последняя запись побеждает:
// клиентские запросы не гоняются за одним токеном.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

func (h *TokenHolder) Get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *TokenHolder) Clear() { h.Set("") }

// transport цепляет bearer-токен, забирает перевыпуск и реагирует на 401.
type transport struct {
	base           http.RoundTripper
	holder         *TokenHolder
	onUnauthorized func()
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := t.holder.Get(); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if fresh := resp.Header.Get(session.RefreshHeader); fresh != "" {
		t.holder.Set(fresh)
	}
	// единая политика: 401 на ЛЮБОМ запросе — сессия недействительна
	if resp.StatusCode == http.StatusUnauthorized {
		t.holder.Clear()
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
	}
	return resp, nil
}

type Client struct {
	baseURL string
	httpc   *http.Client
	holder  *TokenHolder
}

// Option настраивает клиента.
type Option func(*Client)

// WithOnUnauthorized задаёт переход к точке входа при слёте сессии.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.httpc.Transport.(*transport).onUnauthorized = fn
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	holder := &TokenHolder{}
	c := &Client{
		baseURL: baseURL,
		holder:  holder,
		httpc: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &transport{base: http.DefaultTransport, holder: holder},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token — текущий токен (пустая строка, если сессии нет).
func (c *Client) Token() string { return c.holder.Get() }

// Logout — локальное событие: сервер ревокаций не ведёт.
func (c *Client) Logout() { c.holder.Clear() }

// apiError — 4xx/5xx от сервера (тело problem+json).
type apiError struct {
	Status int
	Title  string
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("portal: %d %s: %s", e.Status, e.Title, e.Detail)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var p struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&p)
		return &apiError{Status: resp.StatusCode, Title: p.Title, Detail: p.Detail}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) CheckEmail(ctx context.Context, email string) (*authapi.CheckEmailResponse, error) {
	var out authapi.CheckEmailResponse
	err := c.do(ctx, http.MethodPost, "/auth/check-email",
		authapi.CheckEmailRequest{Email: email}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/auth/verify-code",
		authapi.VerifyCodeRequest{Email: email, Code: code}, nil)
}

// CompleteRegistration завершает регистрацию и сохраняет полученный токен.
func (c *Client) CompleteRegistration(ctx context.Context, req authapi.CompleteRegistrationRequest) error {
	var out authapi.CompleteRegistrationResponse
	if err := c.do(ctx, http.MethodPost, "/auth/complete-registration", req, &out); err != nil {
		return err
	}
	c.holder.Set(out.Token)
	return nil
}

// Login аутентифицирует и сохраняет токен сессии.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out authapi.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login",
		authapi.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return err
	}
	c.holder.Set(out.Token)
	return nil
}

func (c *Client) SetupInfo(ctx context.Context, token string) (*authapi.SetupInfoResponse, error) {
	var out authapi.SetupInfoResponse
	err := c.do(ctx, http.MethodGet, "/auth/setup-info?token="+url.QueryEscape(token), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*authapi.MeResponse, error) {
	var out authapi.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, req authapi.CreateUserRequest) (*authapi.CreateUserResponse, error) {
	var out authapi.CreateUserResponse
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
