package cep

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credencia/pkg/domainerrors"
)

func newViaCEPStub(t *testing.T, calls *atomic.Int32, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestLookup(t *testing.T) {
	t.Run("known code fills the address", func(t *testing.T) {
		var calls atomic.Int32
		client := newViaCEPStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/01001000/json/", r.URL.Path)
			w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
		})

		addr, err := client.Lookup(context.Background(), "01001-000")
		require.NoError(t, err)
		assert.Equal(t, "Praça da Sé", addr.Street)
		assert.Equal(t, "Sé", addr.Neighborhood)
		assert.Equal(t, "São Paulo", addr.City)
		assert.Equal(t, "SP", addr.State)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("short code never reaches the network", func(t *testing.T) {
		var calls atomic.Int32
		client := newViaCEPStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {})

		_, err := client.Lookup(context.Background(), "0100")
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("nine digit code never reaches the network", func(t *testing.T) {
		var calls atomic.Int32
		client := newViaCEPStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {})

		_, err := client.Lookup(context.Background(), "010010001")
		require.Error(t, err)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("erro flag means not found", func(t *testing.T) {
		var calls atomic.Int32
		client := newViaCEPStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"erro": true}`))
		})

		_, err := client.Lookup(context.Background(), "99999999")
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
		assert.Equal(t, "CEP não encontrado.", domainerrors.MessageOf(err))
	})

	t.Run("upstream failure is unavailable", func(t *testing.T) {
		var calls atomic.Int32
		client := newViaCEPStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Lookup(context.Background(), "01001000")
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnavailable))
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestHandler(t *testing.T) {
	var calls atomic.Int32
	client := newViaCEPStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
	})

	h := NewHandler(client, discardLogger())
	router := newRouter(h)

	t.Run("proxy returns the address", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cep/01001000/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "São Paulo")
	})

	t.Run("invalid code is a 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cep/12/", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
