package storage

import (
	"context"
	"errors"
)

// NoopStore devolve erro indicando que não há backend configurado.
type NoopStore struct{}

// Upload sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStore) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: backend não configurado")
}

// Download sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStore) Download(ctx context.Context, key string) (*Object, error) {
	return nil, errors.New("storage: backend não configurado")
}
