package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *S3Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(S3Config{
		Endpoint:   srv.URL,
		Region:     "auto",
		Bucket:     "fotos",
		AccessKey:  "chave",
		SecretKey:  "segredo",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	return store
}

func TestS3StoreUpload(t *testing.T) {
	var gotPath, gotAuth, gotHash string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotHash = r.Header.Get("x-amz-content-sha256")
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	})

	res, err := store.Upload(context.Background(), UploadInput{
		Key:         "1700000000-garrafa pet.jpg",
		Body:        []byte("conteudo"),
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if res.ETag != "abc123" {
		t.Fatalf("etag %q", res.ETag)
	}
	if gotPath != "/fotos/1700000000-garrafa%20pet.jpg" {
		t.Fatalf("path %q", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=chave/") {
		t.Fatalf("authorization %q", gotAuth)
	}
	if !strings.Contains(gotAuth, "SignedHeaders=") || gotHash == "" {
		t.Fatalf("assinatura incompleta: %q / %q", gotAuth, gotHash)
	}
}

func TestS3StoreDownloadNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := store.Download(context.Background(), "inexistente.jpg")
	if err != ErrObjetoNaoEncontrado {
		t.Fatalf("esperava ErrObjetoNaoEncontrado, veio %v", err)
	}
}

func TestS3StoreUploadValida(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := store.Upload(context.Background(), UploadInput{Key: ""}); err == nil {
		t.Fatal("esperava erro para chave vazia")
	}
	if _, err := store.Upload(context.Background(), UploadInput{Key: "x"}); err == nil {
		t.Fatal("esperava erro para corpo vazio")
	}
}
