package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/civicjose/intranet-sub000/internal/logs"
	"github.com/civicjose/intranet-sub000/internal/models"
	"github.com/civicjose/intranet-sub000/internal/repo"
)

// RefreshHeader — заголовок ответа с перевыпущенным токеном.
// Клиент обязан забирать его на каждом успешном запросе.
const RefreshHeader = "X-Auth-Token"

type ctxKey string

const userKey ctxKey = "session.user"

// UserLoader — минимальный контракт загрузки пользователя для Guard.
type UserLoader interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Guard проверяет bearer-токен на каждом запросе и перевыпускает его со
// свежим окном: активная сессия не истекает, простой дольше окна — истекает.
func Guard(m *Manager, users UserLoader) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) {
				// различие "нет токена" / "истёк" — только для сообщений UI
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized",
					ErrMissingToken.Error(), nil)
				return
			}
			claims, err := m.Verify(strings.TrimPrefix(auth, p))
			if err != nil {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized",
					ErrTokenInvalid.Error(), nil)
				return
			}
			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, repo.ErrNotFound) {
					logs.Logger.Errorf("guard: load user %d: %v", claims.UserID, err)
				}
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized",
					ErrTokenInvalid.Error(), nil)
				return
			}

			fresh, err := m.Issue(user.ID, user.RoleID)
			if err != nil {
				logs.Logger.Errorf("guard: reissue token for %d: %v", user.ID, err)
				models.WriteProblem(w, http.StatusInternalServerError,
					"Internal Server Error", "token reissue failed", nil)
				return
			}
			w.Header().Set(RefreshHeader, fresh)

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пускает дальше только пользователей с данной ролью (после Guard).
func RequireRole(roleID int) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok || u.RoleID != roleID {
				models.WriteProblem(w, http.StatusForbidden, "Forbidden",
					"insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}
