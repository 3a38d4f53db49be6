package cnpj_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"credencia/internal/lookup/cnpj"
	"credencia/internal/lookup/cnpj/mocks"
)

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks Provider

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T) (*cnpj.Service, *mocks.MockProvider) {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	svc := cnpj.NewService(provider, cnpj.WithLogger(discardLogger()))
	return svc, provider
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong length never reaches the provider", func(t *testing.T) {
		svc, _ := newService(t)

		result, err := svc.Validate(ctx, "12345")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, cnpj.StatusInvalidFormat, result.Status)
		assert.Equal(t, "CNPJ deve ter 14 dígitos.", result.Message)
	})

	t.Run("formatted cnpj is cleaned before the call", func(t *testing.T) {
		svc, provider := newService(t)
		provider.EXPECT().Validate(gomock.Any(), "12345678000195").
			Return(cnpj.Result{Valid: true, Status: cnpj.StatusActive, Message: "CNPJ Ativo."}, nil)

		result, err := svc.Validate(ctx, "12.345.678/0001-95")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, cnpj.StatusActive, result.Status)
	})

	t.Run("definitive result is served from cache on the second call", func(t *testing.T) {
		svc, provider := newService(t)
		provider.EXPECT().Validate(gomock.Any(), "12345678000195").
			Return(cnpj.Result{Valid: true, Status: cnpj.StatusActive, Message: "CNPJ Ativo."}, nil).
			Times(1)

		first, err := svc.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		second, err := svc.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("transient failures are not cached", func(t *testing.T) {
		svc, provider := newService(t)
		gomock.InOrder(
			provider.EXPECT().Validate(gomock.Any(), "12345678000195").
				Return(cnpj.Result{Valid: false, Status: cnpj.StatusTimeout, Message: "Tempo limite excedido na validação do CNPJ."}, nil),
			provider.EXPECT().Validate(gomock.Any(), "12345678000195").
				Return(cnpj.Result{Valid: true, Status: cnpj.StatusActive, Message: "CNPJ Ativo."}, nil),
		)

		first, err := svc.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.Equal(t, cnpj.StatusTimeout, first.Status)

		second, err := svc.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.True(t, second.Valid)
	})

	t.Run("inactive situation is definitive but invalid", func(t *testing.T) {
		svc, provider := newService(t)
		provider.EXPECT().Validate(gomock.Any(), "12345678000195").
			Return(cnpj.Result{Valid: false, Status: "BAIXADA", Message: "CNPJ com situação BAIXADA na Receita Federal."}, nil).
			Times(1)

		result, err := svc.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.False(t, result.Valid)

		cached, err := svc.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.Equal(t, "BAIXADA", cached.Status)
	})
}

func TestBrasilAPIProvider(t *testing.T) {
	ctx := context.Background()

	newProvider := func(t *testing.T, handler http.HandlerFunc) *cnpj.BrasilAPIProvider {
		t.Helper()
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		return cnpj.NewBrasilAPIProvider(srv.URL, discardLogger())
	}

	t.Run("active situation is valid", func(t *testing.T) {
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/12345678000195", r.URL.Path)
			w.Write([]byte(`{"descricao_situacao_cadastral":"ATIVA"}`))
		})

		result, err := provider.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, cnpj.StatusActive, result.Status)
		assert.Equal(t, "CNPJ Ativo.", result.Message)
	})

	t.Run("other situation carries the registry label", func(t *testing.T) {
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"descricao_situacao_cadastral":"Baixada"}`))
		})

		result, err := provider.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, "BAIXADA", result.Status)
		assert.Contains(t, result.Message, "BAIXADA")
	})

	t.Run("404 is not found", func(t *testing.T) {
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		result, err := provider.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.Equal(t, cnpj.StatusNotFound, result.Status)
	})

	t.Run("5xx is a registry error", func(t *testing.T) {
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		result, err := provider.Validate(ctx, "12345678000195")
		require.NoError(t, err)
		assert.Equal(t, cnpj.StatusError, result.Status)
	})

	t.Run("timeout maps to TIMEOUT", func(t *testing.T) {
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		result, err := provider.Validate(timeoutCtx, "12345678000195")
		require.NoError(t, err)
		assert.Equal(t, cnpj.StatusTimeout, result.Status)
	})
}
