// Package httptransport assembles the feature routers into the service's
// HTTP surface: public registration endpoints, the token endpoint, and the
// admin back office behind bearer auth.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authhandler "credencia/internal/auth/handler"
	"credencia/internal/dashboard"
	documenthandler "credencia/internal/document/handler"
	"credencia/internal/lookup/cep"
	"credencia/internal/lookup/cnpj"
	"credencia/internal/platform/metrics"
	"credencia/internal/platform/middleware"
	professionalhandler "credencia/internal/professional/handler"
	registrationhandler "credencia/internal/registration/handler"
	"credencia/internal/transport/shared"
)

// RequestTimeout bounds every handler, uploads included.
const RequestTimeout = 60 * time.Second

// Deps carries the assembled feature handlers into the router.
type Deps struct {
	Professionals *professionalhandler.Handler
	Documents     *documenthandler.Handler
	Registrations *registrationhandler.Handler
	Auth          *authhandler.Handler
	Dashboard     *dashboard.Handler
	CEP           *cep.Handler
	CNPJ          *cnpj.Handler

	TokenValidator middleware.TokenValidator
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// NewRouter mounts every endpoint with the shared middleware chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/health/", handleHealth)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// Public surface: registration, uploads, lookups, login.
	d.Auth.Register(r)
	d.Professionals.RegisterPublic(r)
	d.Documents.RegisterPublic(r)
	d.Registrations.Register(r)
	d.CEP.Register(r)
	d.CNPJ.Register(r)

	// Back office, bearer token required.
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAuth(d.TokenValidator, d.Logger))
		d.Professionals.RegisterAdmin(admin)
		d.Documents.RegisterAdmin(admin)
		d.Dashboard.Register(admin)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
