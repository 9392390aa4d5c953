package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	httpmiddleware "github.com/ecociclo/api/internal/http/middleware"
	"github.com/ecociclo/api/internal/service"
)

const refreshCookieName = "ecociclo_refresh"

// Register cria a conta e devolve a sessão já aberta.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name      string `json:"name"`
		CPF       string `json:"cpf"`
		BirthDate string `json:"birthDate"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		UserType  string `json:"userType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	nascimento, err := time.Parse("2006-01-02", payload.BirthDate)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data de nascimento inválida (use AAAA-MM-DD)", nil)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Nome:       payload.Name,
		CPF:        payload.CPF,
		Nascimento: nascimento,
		Email:      payload.Email,
		Senha:      payload.Password,
		Tipo:       payload.UserType,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailEmUso) {
			WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	h.writeLoginSuccess(w, http.StatusCreated, result)
}

// Login autentica por e-mail e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
		return
	}

	h.writeLoginSuccess(w, http.StatusOK, result)
}

// Refresh rotaciona o token de acesso.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := refreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh inválido", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao renovar sessão", nil)
		return
	}

	h.writeLoginSuccess(w, http.StatusOK, result)
}

// Logout revoga o refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := refreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Profile devolve o perfil do usuário autenticado, com nível de gamificação.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	perfil, err := h.authService.GetPerfil(r.Context(), subject)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar perfil", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"usuario": perfil})
}

// UpdateProfile altera nome e CPF do próprio usuário.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Name string `json:"name"`
		CPF  string `json:"cpf"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	perfil, err := h.authService.UpdatePerfil(r.Context(), subject, service.UpdatePerfilInput{
		Nome: payload.Name,
		CPF:  payload.CPF,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailEmUso) {
			WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"usuario": perfil})
}

func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(httpmiddleware.GetSubject(r.Context()))
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, status int, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken)
	WriteJSON(w, status, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"usuario":       result.Usuario,
	})
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.JWTRefreshTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func refreshFromRequest(r *http.Request) (string, error) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.RefreshToken != "" {
		return payload.RefreshToken, nil
	}
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("refresh ausente")
}
