package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ecociclo/api/internal/geo"
)

// GoogleMaps proxia a busca de lugares e o geocode reverso com a chave do
// servidor, sem expô-la ao cliente.
func (h *Handler) GoogleMaps(w http.ResponseWriter, r *http.Request) {
	tipo := r.URL.Query().Get("type")
	query := r.URL.Query().Get("query")
	latlng := r.URL.Query().Get("latlng")

	raw, err := h.maps.Lookup(r.Context(), tipo, query, latlng)
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrConsultaInvalida):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		case errors.Is(err, geo.ErrSemChave):
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "geocodificação não configurada", nil)
		default:
			log.Warn().Err(err).Str("type", tipo).Msg("consulta ao google maps falhou")
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha na consulta de geocodificação", nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
