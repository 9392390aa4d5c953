package coleta

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/ecociclo/api/internal/http/middleware"
	"github.com/ecociclo/api/internal/repo"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/coletas", h.list)
	r.Post("/coletas", h.create)
	r.Put("/coletas", h.updateStatus)
	r.Delete("/coletas", h.cancel)
	r.Patch("/coletas", h.removeItens)
	r.Put("/coletas/{coletaID}/itens", h.markItem)
	r.Delete("/coletas/{coletaID}/itens", h.removeItem)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	coletas, err := h.service.Listar(r.Context(), catadorID, tipo)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "apenas catadores acessam coletas", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar coletas", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"coletas": coletas})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Itens []uuid.UUID `json:"itens"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	c, err := h.service.Criar(r.Context(), catadorID, tipo, payload.Itens)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "apenas catadores criam coletas", nil)
		case errors.Is(err, ErrSemItens):
			writeError(w, http.StatusBadRequest, "VALIDATION", "informe ao menos um item", nil)
		case errors.Is(err, ErrItensIndisponiveis):
			writeError(w, http.StatusConflict, "CONFLICT", "um ou mais itens não estão disponíveis", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível criar coleta", nil)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"coleta": c})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		ID     *uuid.UUID `json:"id"`
		Status Status     `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ID == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id e status são obrigatórios", nil)
		return
	}
	if payload.Status != StatusConcluida && payload.Status != StatusEmAndamento {
		writeError(w, http.StatusBadRequest, "VALIDATION", "status inválido", nil)
		return
	}

	c, err := h.service.AtualizarStatus(r.Context(), catadorID, tipo, *payload.ID, payload.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"coleta": c})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		ID *uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ID == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id é obrigatório", nil)
		return
	}

	if err := h.service.Cancelar(r.Context(), catadorID, tipo, *payload.ID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"mensagem": "coleta cancelada com sucesso"})
}

func (h *Handler) removeItens(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		ID    *uuid.UUID  `json:"id"`
		Itens []uuid.UUID `json:"itens"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ID == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id e itens são obrigatórios", nil)
		return
	}

	esvaziada, err := h.service.RemoverItens(r.Context(), catadorID, tipo, *payload.ID, payload.Itens)
	if err != nil {
		if errors.Is(err, ErrSemItens) {
			writeError(w, http.StatusBadRequest, "VALIDATION", "informe ao menos um item", nil)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"coleta_removida": esvaziada})
}

func (h *Handler) markItem(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	coletaID, err := uuid.Parse(chi.URLParam(r, "coletaID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "coleta inválida", nil)
		return
	}

	var payload struct {
		ItemID   *uuid.UUID `json:"itemId"`
		Coletado *bool      `json:"coletado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ItemID == nil || payload.Coletado == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "itemId e coletado são obrigatórios", nil)
		return
	}

	if err := h.service.MarcarItem(r.Context(), catadorID, tipo, coletaID, *payload.ItemID, *payload.Coletado); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"mensagem": "item atualizado"})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	catadorID, tipo, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	coletaID, err := uuid.Parse(chi.URLParam(r, "coletaID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "coleta inválida", nil)
		return
	}

	var payload struct {
		ItemID *uuid.UUID `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ItemID == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "itemId é obrigatório", nil)
		return
	}

	esvaziada, err := h.service.RemoverItem(r.Context(), catadorID, tipo, coletaID, *payload.ItemID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"coleta_removida": esvaziada})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "coleta não encontrada", nil)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "coleta pertence a outro catador", nil)
	case errors.Is(err, ErrConcluida):
		writeError(w, http.StatusConflict, "CONFLICT", "coleta já concluída", nil)
	case errors.Is(err, ErrSemItens):
		writeError(w, http.StatusBadRequest, "VALIDATION", "coleta sem itens", nil)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível processar a coleta", nil)
	}
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
