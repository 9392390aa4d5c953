package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ecociclo/api/internal/auth"
	"github.com/ecociclo/api/internal/repo"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyTipo    contextKey = "tipo"
)

// Auth valida o JWT de acesso e injeta as claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if !repo.TipoUsuario(claims.Tipo).Valid() {
				writeError(w, http.StatusUnauthorized, "AUTH", "tipo de usuário inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyTipo, claims.Tipo)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetTipo recupera o tipo do usuário do contexto.
func GetTipo(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyTipo).(string)
	return val
}

// RequireCatador restringe a rota a catadores.
func RequireCatador(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if repo.TipoUsuario(GetTipo(r.Context())) != repo.TipoCatador {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a catadores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
