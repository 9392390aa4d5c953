package coleta

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/ecociclo/api/internal/http/middleware"
	"github.com/ecociclo/api/internal/repo"
)

func TestColetaHandlers(t *testing.T) {
	stub := newStubRepo()
	svc := NewService(stub)
	handler := NewHandler(svc)

	catador := uuid.New()
	itens := novosItens(stub, 3)
	aberta, err := svc.Criar(context.Background(), catador, repo.TipoCatador, itens[:2])
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"listar", http.MethodGet, "/coletas", nil, http.StatusOK},
		{"criar", http.MethodPost, "/coletas", map[string]any{"itens": []string{itens[2].String()}}, http.StatusCreated},
		{"criar sem itens", http.MethodPost, "/coletas", map[string]any{"itens": []string{}}, http.StatusBadRequest},
		{"criar item ocupado", http.MethodPost, "/coletas", map[string]any{"itens": []string{itens[0].String()}}, http.StatusConflict},
		{"marcar item", http.MethodPut, "/coletas/" + aberta.ID.String() + "/itens", map[string]any{"itemId": itens[0].String(), "coletado": true}, http.StatusOK},
		{"marcar sem corpo", http.MethodPut, "/coletas/" + aberta.ID.String() + "/itens", nil, http.StatusBadRequest},
		{"remover um item", http.MethodDelete, "/coletas/" + aberta.ID.String() + "/itens", map[string]any{"itemId": itens[1].String()}, http.StatusOK},
		{"concluir", http.MethodPut, "/coletas", map[string]any{"id": aberta.ID.String(), "status": "CONCLUIDA"}, http.StatusOK},
		{"reabrir concluída", http.MethodPut, "/coletas", map[string]any{"id": aberta.ID.String(), "status": "EM_ANDAMENTO"}, http.StatusConflict},
		{"cancelar concluída", http.MethodDelete, "/coletas", map[string]any{"id": aberta.ID.String()}, http.StatusConflict},
		{"coleta inexistente", http.MethodPut, "/coletas", map[string]any{"id": uuid.NewString(), "status": "CONCLUIDA"}, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = withCatador(req, catador)
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestColetaHandlersDeOutroCatador(t *testing.T) {
	stub := newStubRepo()
	svc := NewService(stub)
	handler := NewHandler(svc)

	dono := uuid.New()
	itens := novosItens(stub, 1)
	aberta, err := svc.Criar(context.Background(), dono, repo.TipoCatador, itens)
	require.NoError(t, err)

	body := map[string]any{"id": aberta.ID.String(), "status": "CONCLUIDA"}
	req := httptest.NewRequest(http.MethodPut, "/coletas", requestBody(body))
	req = withCatador(req, uuid.New())
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}

func withCatador(req *http.Request, id uuid.UUID) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, id.String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyTipo, string(repo.TipoCatador))
	return req.WithContext(ctx)
}
