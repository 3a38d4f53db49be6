package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credencia/internal/audit"
	"credencia/internal/auth"
	authhandler "credencia/internal/auth/handler"
	authservice "credencia/internal/auth/service"
	"credencia/internal/dashboard"
	"credencia/internal/document/blob"
	documenthandler "credencia/internal/document/handler"
	documentservice "credencia/internal/document/service"
	documentstore "credencia/internal/document/store"
	"credencia/internal/export"
	"credencia/internal/lookup/cep"
	"credencia/internal/lookup/cnpj"
	"credencia/internal/platform/metrics"
	professionalhandler "credencia/internal/professional/handler"
	professionalservice "credencia/internal/professional/service"
	professionalstore "credencia/internal/professional/store"
	registrationhandler "credencia/internal/registration/handler"
	registrationservice "credencia/internal/registration/service"
	httptransport "credencia/internal/transport/http"
	"credencia/pkg/client"
	"credencia/pkg/registration"
)

// testBackend is the whole service on memory stores with stubbed upstreams.
type testBackend struct {
	server  *httptest.Server
	viaCEP  *httptest.Server
	brasil  *httptest.Server
	blobs   *blob.MemoryStore
	metrics *metrics.Metrics
}

func (b *testBackend) Close() {
	b.server.Close()
	b.viaCEP.Close()
	b.brasil.Close()
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	viaCEP := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"cep":        "01310-100",
			"logradouro": "Avenida Paulista",
			"bairro":     "Bela Vista",
			"localidade": "São Paulo",
			"uf":         "SP",
		})
	}))

	// Active unless the CNPJ ends in 0, which reports a closed company.
	brasil := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		situation := "ATIVA"
		if path := r.URL.Path; len(path) > 0 && path[len(path)-1] == '0' {
			situation = "BAIXADA"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"descricao_situacao_cadastral": situation,
		})
	}))

	m := metrics.New()
	professionals := professionalstore.NewMemoryStore()
	documents := documentstore.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	auditPub := audit.NewPublisher(auditStore, nil, logger)

	adminUsers := auth.NewMemoryStore()
	if err := authservice.SeedAdmin(context.Background(), adminUsers, "admin", "s3cret"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	authSvc := authservice.New(adminUsers, "test-signing-key", time.Hour,
		authservice.WithLogger(logger))

	cnpjSvc := cnpj.NewService(cnpj.NewBrasilAPIProvider(brasil.URL, logger),
		cnpj.WithLogger(logger))
	cepClient := cep.NewClient(viaCEP.URL)

	professionalSvc := professionalservice.New(professionals, auditPub,
		professionalservice.WithMetrics(m),
		professionalservice.WithLogger(logger))
	documentSvc := documentservice.New(documents, blobs, professionals, auditPub,
		documentservice.WithLogger(logger))
	submissionSvc := registrationservice.New(professionalSvc, documentSvc,
		registrationservice.WithRegistryChecker(cnpjSvc),
		registrationservice.WithLogger(logger))
	exportSvc := export.New(professionals, export.WithLogger(logger))
	dashboardSvc := dashboard.NewService(professionals, auditStore)

	router := httptransport.NewRouter(httptransport.Deps{
		Professionals:  professionalhandler.New(professionalSvc, exportSvc, logger),
		Documents:      documenthandler.New(documentSvc, logger),
		Registrations:  registrationhandler.New(submissionSvc, logger),
		Auth:           authhandler.New(authSvc, logger),
		Dashboard:      dashboard.NewHandler(dashboardSvc, logger),
		CEP:            cep.NewHandler(cepClient, logger),
		CNPJ:           cnpj.NewHandler(cnpjSvc, logger),
		TokenValidator: authSvc,
		Metrics:        m,
		Logger:         logger,
	})

	return &testBackend{
		server:  httptest.NewServer(router),
		viaCEP:  viaCEP,
		brasil:  brasil,
		blobs:   blobs,
		metrics: m,
	}
}

type ClientSuite struct {
	suite.Suite

	backend *testBackend
	client  *client.Client
}

func (s *ClientSuite) SetupTest() {
	s.backend = newTestBackend(s.T())
	s.client = client.New(s.backend.server.URL,
		client.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ClientSuite) TearDownTest() {
	s.backend.Close()
}

func pdf(size int) registration.AttachedFile {
	return registration.AttachedFile{
		Name:        "diploma.pdf",
		ContentType: "application/pdf",
		Content:     bytes.Repeat([]byte("a"), size),
	}
}

func individualDraft(cpf string) *registration.Draft {
	return &registration.Draft{
		Individual: &registration.Individual{CPF: cpf, BirthDate: "1991-04-02"},
		Name:       "Ana Souza",
		Email:      "ana.souza@example.com",
		Phone:      "11987654321",
		Address: registration.Address{
			ZipCode: "01310100", Street: "Avenida Paulista", Number: "1000",
			Neighborhood: "Bela Vista", City: "São Paulo", State: "SP",
		},
		Credentials: registration.Credentials{
			Education: "Fisioterapia", Institution: "USP", GraduationYear: "2014",
			CouncilName: "CREFITO", CouncilNumber: "98765", ExperienceYears: "10",
		},
		ConsentGiven: true,
	}
}

func corporateDraft(cnpj string) *registration.Draft {
	d := individualDraft("")
	d.Individual = nil
	d.Corporate = &registration.Corporate{
		CNPJ:                 cnpj,
		CompanyName:          "Clínica Boa Saúde",
		TechnicalManagerName: "Carlos Pereira",
		TechnicalManagerCPF:  "52998224725",
	}
	d.Name = "Boa Saúde Serviços Médicos Ltda"
	d.Email = "contato@boasaude.com.br"
	return d
}

// TestSubmitIndividual walks the full happy path: a PF registrant with one
// staged 2 MB PDF ends up with a created record and one stored document
// referencing it.
func (s *ClientSuite) TestSubmitIndividual() {
	draft := individualDraft("52998224725")
	draft.Files = []registration.AttachedFile{pdf(2 * 1024 * 1024)}

	outcome, err := s.client.Submit(context.Background(), draft)
	s.Require().NoError(err)
	s.Require().True(outcome.Complete())

	s.Equal("PF", outcome.Professional.PersonType)
	s.Equal("PENDING", outcome.Professional.Status)
	s.Require().NotNil(outcome.Professional.Individual)
	s.Equal("52998224725", outcome.Professional.Individual.CPF)

	s.Require().Len(outcome.Documents, 1)
	s.Equal(outcome.Professional.ID, outcome.Documents[0].ProfessionalID)
	s.Equal("diploma.pdf", outcome.Documents[0].FileName)
	s.Equal(int64(2*1024*1024), outcome.Documents[0].Size)
	s.Equal(1, s.backend.blobs.Len())
}

func (s *ClientSuite) TestSubmitFanOut() {
	draft := individualDraft("39053344705")
	draft.Files = []registration.AttachedFile{
		{Name: "diploma.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		{Name: "conselho.jpg", ContentType: "image/jpeg", Content: []byte("jpeg")},
		{Name: "comprovante.png", ContentType: "image/png", Content: []byte("png")},
	}

	outcome, err := s.client.Submit(context.Background(), draft)
	s.Require().NoError(err)
	s.Require().True(outcome.Complete())
	s.Len(outcome.Documents, 3)
	for _, doc := range outcome.Documents {
		s.Equal(outcome.Professional.ID, doc.ProfessionalID)
	}
	s.Equal(3, s.backend.blobs.Len())
}

func (s *ClientSuite) TestSubmitPreconditions() {
	s.Run("invalid draft never reaches the network", func() {
		draft := individualDraft("123")
		draft.Files = []registration.AttachedFile{pdf(10)}

		_, err := s.client.Submit(context.Background(), draft)

		var verr *client.ValidationFailure
		s.Require().ErrorAs(err, &verr)
		s.Contains(verr.Fields, "cpf")
	})

	s.Run("zero files blocks submission", func() {
		draft := individualDraft("52998224725")

		_, err := s.client.Submit(context.Background(), draft)
		s.Require().EqualError(err, "anexe pelo menos um documento")
	})

	s.Run("oversized file blocks submission and names the file", func() {
		draft := individualDraft("52998224725")
		draft.Files = []registration.AttachedFile{pdf(registration.MaxFileSize + 1)}

		_, err := s.client.Submit(context.Background(), draft)
		s.Require().EqualError(err, "o arquivo diploma.pdf excede o limite de 5MB")
	})
}

func (s *ClientSuite) TestSubmitCorporate() {
	s.Run("active company goes through", func() {
		draft := corporateDraft("12345678000195")
		draft.Files = []registration.AttachedFile{pdf(64)}

		outcome, err := s.client.Submit(context.Background(), draft)
		s.Require().NoError(err)
		s.Equal("PJ", outcome.Professional.PersonType)
	})

	s.Run("inactive company is blocked with the registry message", func() {
		draft := corporateDraft("98765432000110")
		draft.Files = []registration.AttachedFile{pdf(64)}

		_, err := s.client.Submit(context.Background(), draft)
		s.Require().Error(err)
		s.False(client.IsDuplicateIdentity(err))

		apiErr, ok := client.AsAPIError(err)
		s.Require().True(ok)
		s.Contains(apiErr.Message, "BAIXADA")
	})

	s.Run("an explicit verdict is reused at submission", func() {
		result, err := s.client.ValidateCNPJ(context.Background(), "11222333000181")
		s.Require().NoError(err)
		s.Require().True(result.Valid)

		// The registry stub is gone, so a fresh lookup would fail; the
		// cached verdict carries the submission.
		s.backend.brasil.Close()

		draft := corporateDraft("11222333000181")
		draft.Files = []registration.AttachedFile{pdf(64)}

		outcome, err := s.client.Submit(context.Background(), draft)
		s.Require().NoError(err)
		s.True(outcome.Complete())
	})
}

func (s *ClientSuite) TestDuplicateClassification() {
	draft := individualDraft("52998224725")
	draft.Files = []registration.AttachedFile{pdf(16)}

	_, err := s.client.Submit(context.Background(), draft)
	s.Require().NoError(err)

	again := individualDraft("52998224725")
	again.Email = "outra@example.com"
	again.Files = []registration.AttachedFile{pdf(16)}

	_, err = s.client.Submit(context.Background(), again)
	s.Require().Error(err)
	s.True(client.IsDuplicateIdentity(err))
	s.False(client.IsValidation(err))
}

func (s *ClientSuite) TestLookupCEP() {
	addr, err := s.client.LookupCEP(context.Background(), "01310-100")
	s.Require().NoError(err)
	s.Equal("Avenida Paulista", addr.Street)
	s.Equal("São Paulo", addr.City)
	s.Equal("SP", addr.State)

	_, err = s.client.LookupCEP(context.Background(), "123")
	s.Require().Error(err)
	s.False(client.IsDuplicateIdentity(err))
}

func (s *ClientSuite) TestAdminWorkflow() {
	ctx := context.Background()

	draft := individualDraft("52998224725")
	draft.Files = []registration.AttachedFile{pdf(128)}
	outcome, err := s.client.Submit(ctx, draft)
	s.Require().NoError(err)
	id := outcome.Professional.ID

	_, err = s.client.Login(ctx, "admin", "wrong")
	s.Require().Error(err)

	session, err := s.client.Login(ctx, "admin", "s3cret")
	s.Require().NoError(err)

	list, err := session.ListProfessionals(ctx, client.ListOptions{Status: "PENDING"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(id, list[0].ID)

	status := "APPROVED"
	updated, err := session.UpdateProfessional(ctx, id, client.ReviewUpdate{Status: &status})
	s.Require().NoError(err)
	s.Equal("APPROVED", updated.Status)
	s.Equal("admin", updated.ApprovedBy)

	history, err := session.History(ctx, id)
	s.Require().NoError(err)
	s.Require().NotEmpty(history)
	s.Equal("STATUS_CHANGE", history[0].Action)

	docs, err := session.ListDocuments(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)

	content, err := session.DownloadDocument(ctx, docs[0].ID)
	s.Require().NoError(err)
	s.Len(content, 128)

	stats, err := session.Dashboard(ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.TotalRegistrations)
	s.Require().NotEmpty(stats.StatusCounts)

	sheet, err := session.ExportProfessionals(ctx, client.ListOptions{})
	s.Require().NoError(err)
	s.NotEmpty(sheet)

	session.Logout()
	_, err = session.ListProfessionals(ctx, client.ListOptions{})
	s.Require().Error(err)
	apiErr, ok := client.AsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusUnauthorized, apiErr.StatusCode)
}

func (s *ClientSuite) TestUnauthenticatedAdminCalls() {
	req, err := http.NewRequest(http.MethodGet, s.backend.server.URL+"/professionals/", nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}
