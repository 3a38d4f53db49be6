// Package cep resolves Brazilian postal codes through the ViaCEP service
// so the registration form can autofill address fields.
package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"credencia/internal/platform/metrics"
	"credencia/pkg/domainerrors"
	str "credencia/pkg/platform/strings"
)

const DefaultBaseURL = "https://viacep.com.br/ws"

// Address is the subset of the ViaCEP response the form needs.
type Address struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Client queries ViaCEP. A lookup only happens for codes that clean to
// exactly 8 digits; anything else is rejected locally.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option  { return func(c *Client) { c.http = h } }
func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type viaCEPResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         bool   `json:"erro"`
}

// Lookup resolves one postal code. Unknown codes and upstream failures are
// reported as coded errors so the form can surface them without blocking
// manual entry.
func (c *Client) Lookup(ctx context.Context, code string) (*Address, error) {
	ctx, span := otel.Tracer("credencia/lookup/cep").Start(ctx, "cep.lookup")
	defer span.End()

	clean := str.Digits(code)
	span.SetAttributes(attribute.String("cep.code", clean))
	if len(clean) != 8 {
		c.count("invalid_format")
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "CEP deve ter 8 dígitos")
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, clean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to build CEP request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.count("error")
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "Erro ao buscar CEP. Verifique sua conexão.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.count("error")
		return nil, domainerrors.Newf(domainerrors.CodeUnavailable, "Erro ao buscar CEP (status %d).", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.count("error")
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "Erro ao buscar CEP.")
	}
	if body.Erro {
		c.count("not_found")
		return nil, domainerrors.New(domainerrors.CodeNotFound, "CEP não encontrado.")
	}

	c.count("hit")
	return &Address{
		ZipCode:      clean,
		Street:       body.Street,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
	}, nil
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.CEPLookups.WithLabelValues(outcome).Inc()
	}
}
