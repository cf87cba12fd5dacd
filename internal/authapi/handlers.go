package authapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civicjose/intranet-sub000/internal/identity"
	"github.com/civicjose/intranet-sub000/internal/logs"
	"github.com/civicjose/intranet-sub000/internal/middleware"
	"github.com/civicjose/intranet-sub000/internal/models"
	"github.com/civicjose/intranet-sub000/internal/session"
)

func NewHandler(svc *identity.Service) *Handler { return &Handler{svc: svc} }

type Handler struct {
	svc *identity.Service
}

// writeErr транслирует доменную ошибку в HTTP-статус + problem+json.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var title string
	switch {
	case errors.Is(err, identity.ErrForbiddenDomain):
		status, title = http.StatusForbidden, "Forbidden Domain"
	case errors.Is(err, identity.ErrDuplicateEmail):
		status, title = http.StatusConflict, "Duplicate Email"
	case errors.Is(err, identity.ErrInvalidRequest),
		errors.Is(err, identity.ErrCodeExpired),
		errors.Is(err, identity.ErrInvalidCode),
		errors.Is(err, identity.ErrTokenExpired),
		errors.Is(err, identity.ErrWeakPassword):
		status, title = http.StatusBadRequest, "Bad Request"
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrNotVerified):
		status, title = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, identity.ErrMailSend):
		// отказ канала уведомлений — ошибка запроса (повтор перевыпустит код)
		status, title = http.StatusFailedDependency, "Notification Failure"
	default:
		logs.Logger.Errorf("authapi: reqid=%s unexpected error: %v",
			middleware.GetRequestID(r), err)
		models.WriteProblem(w, http.StatusInternalServerError,
			"Internal Server Error", "unexpected error", nil)
		return
	}
	models.WriteProblem(w, status, title, err.Error(), nil)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "malformed json body", nil)
		return false
	}
	return true
}

// POST /auth/check-email
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req CheckEmailRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := h.svc.CheckEmail(r.Context(), req.Email)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, CheckEmailResponse{Status: string(status)})
}

// POST /auth/verify-code
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		writeErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, VerifyCodeResponse{Status: StatusCodeVerified})
}

// POST /auth/complete-registration
func (h *Handler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req CompleteRegistrationRequest
	if !decode(w, r, &req) {
		return
	}
	in := identity.RegistrationInput{
		Email:        req.Email,
		Token:        req.Token,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CompanyPhone: req.CompanyPhone,
	}
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request",
				"birthDate must be YYYY-MM-DD", nil)
			return
		}
		in.BirthDate = &bd
	}
	token, err := h.svc.CompleteRegistration(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, CompleteRegistrationResponse{
		Status: StatusRegistrationComplete,
		Token:  token,
	})
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// GET /auth/setup-info?token=...
func (h *Handler) SetupInfo(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "token required", nil)
		return
	}
	u, err := h.svc.SetupInfo(r.Context(), token)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, SetupInfoResponse{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}

// GET /api/me (за Guard)
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized",
			"no user in context", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, MeResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		RoleID:    u.RoleID,
	})
}

// POST /api/users (за Guard + RequireRole(admin))
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), identity.CreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    req.RoleID,
		Mode:      identity.CreateMode(req.Mode),
		Password:  req.Password,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, CreateUserResponse{
		ID:         u.ID,
		Email:      u.Email,
		IsVerified: u.IsVerified,
	})
}
