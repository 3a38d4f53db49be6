package cnpj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const DefaultBaseURL = "https://brasilapi.com.br/api/cnpj/v1"

// BrasilAPIProvider validates CNPJs against the BrasilAPI public registry
// mirror.
type BrasilAPIProvider struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewBrasilAPIProvider(baseURL string, logger *slog.Logger) *BrasilAPIProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &BrasilAPIProvider{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

type brasilAPIResponse struct {
	Situation string `json:"descricao_situacao_cadastral"`
}

func (p *BrasilAPIProvider) Validate(ctx context.Context, cnpj string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", p.baseURL, cnpj), nil)
	if err != nil {
		return Result{}, fmt.Errorf("building registry request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			p.logger.WarnContext(ctx, "registry lookup timed out", "cnpj", cnpj)
			return Result{
				Valid:   false,
				Status:  StatusTimeout,
				Message: "Tempo limite excedido na validação do CNPJ.",
			}, nil
		}
		p.logger.WarnContext(ctx, "registry lookup failed", "cnpj", cnpj, "error", err)
		return Result{
			Valid:   false,
			Status:  StatusError,
			Message: "Erro ao consultar CNPJ. Tente novamente mais tarde.",
		}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body brasilAPIResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return Result{
				Valid:   false,
				Status:  StatusError,
				Message: "Erro ao consultar CNPJ. Tente novamente mais tarde.",
			}, nil
		}
		situation := strings.ToUpper(body.Situation)
		if situation == StatusActive {
			return Result{Valid: true, Status: StatusActive, Message: "CNPJ Ativo."}, nil
		}
		return Result{
			Valid:   false,
			Status:  situation,
			Message: fmt.Sprintf("CNPJ com situação %s na Receita Federal.", situation),
		}, nil

	case resp.StatusCode == http.StatusNotFound:
		return Result{
			Valid:   false,
			Status:  StatusNotFound,
			Message: "CNPJ não encontrado na base da Receita Federal.",
		}, nil

	default:
		p.logger.WarnContext(ctx, "registry returned unexpected status", "cnpj", cnpj, "status", resp.StatusCode)
		return Result{
			Valid:   false,
			Status:  StatusError,
			Message: "Erro ao consultar CNPJ. Tente novamente mais tarde.",
		}, nil
	}
}
