package authapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/civicjose/intranet-sub000/internal/models"
	"github.com/civicjose/intranet-sub000/internal/session"
)

// RegisterRoutes вешает публичные auth-эндпоинты и защищённый /api
// суброутер (Guard на каждом запросе, админские — ещё и RequireRole).
func RegisterRoutes(r *mux.Router, h *Handler, sm *session.Manager, users session.UserLoader) {
	pub := r.PathPrefix("/auth").Subrouter()
	pub.HandleFunc("/check-email", h.CheckEmail).Methods(http.MethodPost)
	pub.HandleFunc("/verify-code", h.VerifyCode).Methods(http.MethodPost)
	pub.HandleFunc("/complete-registration", h.CompleteRegistration).Methods(http.MethodPost)
	pub.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	pub.HandleFunc("/setup-info", h.SetupInfo).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(session.Guard(sm, users))
	api.HandleFunc("/me", h.Me).Methods(http.MethodGet)

	admin := api.PathPrefix("/users").Subrouter()
	admin.Use(session.RequireRole(models.RoleAdmin))
	admin.HandleFunc("", h.CreateUser).Methods(http.MethodPost)
}
