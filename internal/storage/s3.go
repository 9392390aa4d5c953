package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// S3Config descreve parâmetros necessários para assinar requisições compatíveis com S3.
type S3Config struct {
	Endpoint   string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	PublicURL  string
	HTTPClient *http.Client
}

// S3Store implementa BlobStore usando assinatura SigV4 (path-style).
type S3Store struct {
	cfg    S3Config
	client *http.Client
}

// NewS3Store cria um cliente pronto para falar com um endpoint S3/R2/MinIO.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &S3Store{cfg: cfg, client: client}, nil
}

// Upload envia o arquivo para o bucket configurado e retorna URL pública (se disponível).
func (s *S3Store) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if strings.TrimSpace(input.Key) == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if len(input.Body) == 0 {
		return nil, errors.New("storage: corpo vazio")
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	targetURL := s.objectURL(input.Key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, targetURL, bytes.NewReader(input.Body))
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(input.Body)
	payloadHash := hex.EncodeToString(sum[:])

	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(input.Body))

	s.sign(req, payloadHash, time.Now().UTC())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("storage: upload falhou (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	publicURL := targetURL
	if strings.TrimSpace(s.cfg.PublicURL) != "" {
		publicURL = strings.TrimRight(s.cfg.PublicURL, "/") + "/" + escapeKey(input.Key)
	}

	return &UploadResult{
		URL:  publicURL,
		ETag: strings.Trim(resp.Header.Get("ETag"), `"`),
	}, nil
}

// ErrObjetoNaoEncontrado indica chave ausente no bucket.
var ErrObjetoNaoEncontrado = errors.New("storage: objeto não encontrado")

// Download lê o objeto do bucket; o chamador fecha o Body.
func (s *S3Store) Download(ctx context.Context, key string) (*Object, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, err
	}

	// GET sem corpo: hash do payload vazio.
	empty := sha256.Sum256(nil)
	s.sign(req, hex.EncodeToString(empty[:]), time.Now().UTC())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrObjetoNaoEncontrado
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("storage: download falhou (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &Object{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

func (s *S3Store) objectURL(key string) string {
	endpoint := strings.TrimRight(s.cfg.Endpoint, "/")
	return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.Bucket, escapeKey(key))
}

func escapeKey(key string) string {
	return (&url.URL{Path: strings.TrimLeft(key, "/")}).EscapedPath()
}

func (cfg S3Config) validate() error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("storage: endpoint do S3 ausente")
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return errors.New("storage: endpoint deve incluir protocolo http/https")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return errors.New("storage: região do S3 ausente")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return errors.New("storage: bucket do S3 ausente")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return errors.New("storage: credenciais do S3 ausentes")
	}
	return nil
}

// sign aplica assinatura AWS SigV4 sobre a requisição.
func (s *S3Store) sign(req *http.Request, payloadHash string, now time.Time) {
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("x-amz-content-sha256", payloadHash)
	req.Header.Set("Host", req.URL.Host)

	type hdr struct{ k, v string }
	var headers []hdr
	for key, vals := range req.Header {
		lower := strings.ToLower(key)
		if lower == "authorization" {
			continue
		}
		headers = append(headers, hdr{k: lower, v: strings.TrimSpace(strings.Join(vals, ","))})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].k < headers[j].k })

	var canonicalHeaders strings.Builder
	signedList := make([]string, 0, len(headers))
	for _, h := range headers {
		canonicalHeaders.WriteString(h.k + ":" + h.v + "\n")
		signedList = append(signedList, h.k)
	}
	signedHeaders := strings.Join(signedList, ";")

	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalPath(req.URL.Path),
		canonicalQuery(req.URL.Query()),
		canonicalHeaders.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := fmt.Sprintf("%s/%s/s3/aws4_request", dateStamp, s.cfg.Region)
	reqHash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		hex.EncodeToString(reqHash[:]),
	}, "\n")

	key := hmacSHA256([]byte("AWS4"+s.cfg.SecretKey), []byte(dateStamp))
	key = hmacSHA256(key, []byte(s.cfg.Region))
	key = hmacSHA256(key, []byte("s3"))
	key = hmacSHA256(key, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.cfg.AccessKey, scope, signedHeaders, signature,
	))
}

func canonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return uriEncode(path, false)
}

func canonicalQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		vals := values[key]
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, uriEncode(key, true)+"="+uriEncode(v, true))
		}
	}
	return strings.Join(parts, "&")
}

func uriEncode(input string, encodeSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'),
			c == '-' || c == '_' || c == '.' || c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
