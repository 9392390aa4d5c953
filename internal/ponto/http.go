package ponto

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/ecociclo/api/internal/http/middleware"
	"github.com/ecociclo/api/internal/repo"
)

// Handler expõe endpoints REST de pontos de coleta e itens.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/pontos-de-coleta", h.listPontos)
	r.Post("/pontos-de-coleta", h.createPonto)
	r.Get("/pontos-de-coleta/{pontoID}/itens", h.listItens)
	r.Post("/pontos-de-coleta/{pontoID}/itens", h.createItem)
	r.Delete("/pontos-de-coleta/{pontoID}/itens/{itemID}", h.deleteItem)
}

func (h *Handler) listPontos(w http.ResponseWriter, r *http.Request) {
	userID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	filtro := ListarFiltro{}
	if raw := strings.TrimSpace(r.URL.Query().Get("categorias")); raw != "" {
		for _, part := range strings.Split(raw, ";") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION", "categoria inválida no filtro", nil)
				return
			}
			filtro.Categorias = append(filtro.Categorias, id)
		}
	}
	if latStr, lngStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "coordenadas inválidas", nil)
			return
		}
		filtro.Lat, filtro.Lng = &lat, &lng
	}

	pontos, err := h.service.Listar(r.Context(), userID, tipo, filtro)
	if err != nil {
		switch err {
		case ErrForbidden:
			writeError(w, http.StatusForbidden, "FORBIDDEN", "tipo de usuário inválido", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar pontos de coleta", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pontos": pontos})
}

func (h *Handler) createPonto(w http.ResponseWriter, r *http.Request) {
	userID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Nome      string   `json:"nome"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "nome, latitude e longitude são obrigatórios", nil)
		return
	}

	p, err := h.service.CriarPonto(r.Context(), userID, tipo, payload.Nome, *payload.Latitude, *payload.Longitude)
	if err != nil {
		switch err {
		case ErrForbidden:
			writeError(w, http.StatusForbidden, "FORBIDDEN", "apenas usuários criam pontos de coleta", nil)
		default:
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ponto": p})
}

func (h *Handler) listItens(w http.ResponseWriter, r *http.Request) {
	pontoID, err := uuid.Parse(chi.URLParam(r, "pontoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "ponto inválido", nil)
		return
	}

	itens, err := h.service.ListarItens(r.Context(), pontoID)
	if err != nil {
		switch err {
		case ErrNotFound:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "ponto de coleta não encontrado", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar itens", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"itens": itens})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	pontoID, err := uuid.Parse(chi.URLParam(r, "pontoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "ponto inválido", nil)
		return
	}

	var payload struct {
		CategoriaID *uuid.UUID `json:"categoriaId"`
		FotoID      *uuid.UUID `json:"fotoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.CategoriaID == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "categoria é obrigatória", nil)
		return
	}

	item, err := h.service.CriarItem(r.Context(), userID, pontoID, *payload.CategoriaID, payload.FotoID)
	if err != nil {
		switch err {
		case ErrNotFound:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "ponto de coleta não encontrado", nil)
		case ErrForbidden:
			writeError(w, http.StatusForbidden, "FORBIDDEN", "apenas o autor do ponto adiciona itens", nil)
		case ErrFotoNaoEncontrada:
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível criar item", nil)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	pontoID, err := uuid.Parse(chi.URLParam(r, "pontoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "ponto inválido", nil)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "item inválido", nil)
		return
	}

	if err := h.service.RemoverItem(r.Context(), userID, pontoID, itemID); err != nil {
		switch err {
		case ErrNotFound:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "item não encontrado no ponto de coleta", nil)
		case ErrForbidden:
			writeError(w, http.StatusForbidden, "FORBIDDEN", "apenas o autor do ponto remove itens", nil)
		case ErrItemReservado:
			writeError(w, http.StatusConflict, "CONFLICT", "item vinculado a uma coleta", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover item", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"mensagem": "item removido com sucesso"})
}

func caller(r *http.Request) (uuid.UUID, repo.TipoUsuario, error) {
	id, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, repo.TipoUsuario(httpmiddleware.GetTipo(r.Context())), nil
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Data: nil,
		Error: &errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
