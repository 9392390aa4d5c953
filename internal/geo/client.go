package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrConsultaInvalida indica tipo ou parâmetros de busca inválidos.
	ErrConsultaInvalida = errors.New("consulta inválida: use type=places com query ou type=geocode com latlng")
	// ErrSemChave indica que a API key do Google Maps não foi configurada.
	ErrSemChave = errors.New("chave do Google Maps não configurada")
)

const (
	placesBaseURL  = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	geocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// Client encaminha buscas de lugares e geocodificação reversa ao Google Maps.
// Chamadas são de tentativa única; falhas sobem para o chamador.
type Client struct {
	apiKey string
	http   *http.Client
}

// NewClient cria o proxy com a chave do servidor.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup resolve a consulta conforme o tipo e devolve o JSON bruto da API.
func (c *Client) Lookup(ctx context.Context, tipo, query, latlng string) (json.RawMessage, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrSemChave
	}

	var apiURL string
	switch {
	case tipo == "places" && strings.TrimSpace(query) != "":
		apiURL = fmt.Sprintf("%s?query=%s&key=%s", placesBaseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))
	case tipo == "geocode" && strings.TrimSpace(latlng) != "":
		apiURL = fmt.Sprintf("%s?latlng=%s&key=%s", geocodeBaseURL, url.QueryEscape(latlng), url.QueryEscape(c.apiKey))
	default:
		return nil, ErrConsultaInvalida
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google maps respondeu %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
