package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecociclo/api/internal/foto"
	"github.com/ecociclo/api/internal/storage"
)

// UploadFile recebe uma imagem multipart, envia ao bucket e registra a foto.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.cfg.UploadMaxBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "campo file é obrigatório", nil)
		return
	}
	defer file.Close()

	if header.Size > h.cfg.UploadMaxBytes {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo excede o tamanho máximo", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "apenas imagens são aceitas", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(file, h.cfg.UploadMaxBytes+1))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao ler arquivo", nil)
		return
	}
	if int64(len(body)) > h.cfg.UploadMaxBytes {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo excede o tamanho máximo", nil)
		return
	}

	chave := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeFilename(header.Filename))

	if _, err := h.storage.Upload(r.Context(), storage.UploadInput{
		Key:         chave,
		Body:        body,
		ContentType: contentType,
	}); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao enviar arquivo", nil)
		return
	}

	registro, err := h.fotos.Create(r.Context(), chave)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao registrar foto", nil)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"foto": registro})
}

// DownloadFile devolve o conteúdo da foto em streaming.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "fotoID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "foto inválida", nil)
		return
	}

	registro, err := h.fotos.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, foto.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "foto não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao carregar foto", nil)
		return
	}

	obj, err := h.storage.Download(r.Context(), registro.Chave)
	if err != nil {
		if errors.Is(err, storage.ErrObjetoNaoEncontrado) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "arquivo não encontrado no bucket", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao baixar arquivo", nil)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", obj.Size))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(registro.Chave)))

	_, _ = io.Copy(w, obj.Body)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "arquivo"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_' || r == ' ':
			return r
		default:
			return '-'
		}
	}, name)
}
