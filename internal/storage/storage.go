package storage

import (
	"context"
	"io"
)

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Object é o retorno de um download, com corpo streamável.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// BlobStore define o comportamento necessário para guardar e ler fotos.
type BlobStore interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Download(ctx context.Context, key string) (*Object, error)
}
