package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credencia/internal/audit"
	"credencia/internal/document/blob"
	documentservice "credencia/internal/document/service"
	documentstore "credencia/internal/document/store"
	"credencia/internal/lookup/cnpj"
	professionalservice "credencia/internal/professional/service"
	professionalstore "credencia/internal/professional/store"
	"credencia/pkg/domainerrors"
	"credencia/pkg/registration"
	"credencia/pkg/requestcontext"
)

type stubRegistry struct {
	result cnpj.Result
	err    error
	calls  int
}

func (s *stubRegistry) Validate(_ context.Context, _ string) (cnpj.Result, error) {
	s.calls++
	return s.result, s.err
}

type SubmissionSuite struct {
	suite.Suite
	professionals *professionalstore.MemoryStore
	documents     *documentstore.MemoryStore
	blobs         *blob.MemoryStore
	registry      *stubRegistry
	service       *Service
	now           time.Time
}

func TestSubmissionSuite(t *testing.T) {
	suite.Run(t, new(SubmissionSuite))
}

func (s *SubmissionSuite) SetupTest() {
	s.professionals = professionalstore.NewMemoryStore()
	s.documents = documentstore.NewMemoryStore()
	s.blobs = blob.NewMemoryStore()
	s.registry = &stubRegistry{result: cnpj.Result{Valid: true, Status: cnpj.StatusActive, Message: "CNPJ Ativo."}}
	s.now = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditPub := audit.NewPublisher(audit.NewMemoryStore(), nil, logger)

	professionals := professionalservice.New(s.professionals, auditPub, professionalservice.WithLogger(logger))
	documents := documentservice.New(s.documents, s.blobs, s.professionals, auditPub, documentservice.WithLogger(logger))

	s.service = New(professionals, documents,
		WithRegistryChecker(s.registry),
		WithLogger(logger),
	)
}

func (s *SubmissionSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func individualDraft() *registration.Draft {
	return &registration.Draft{
		Individual: &registration.Individual{CPF: "12345678901", BirthDate: "1990-05-01"},
		Name:       "Ana Souza",
		Email:      "ana.souza@example.com",
		Phone:      "11987654321",
		Address: registration.Address{
			ZipCode:      "01001000",
			Street:       "Praça da Sé",
			Number:       "100",
			Neighborhood: "Sé",
			City:         "São Paulo",
			State:        "SP",
		},
		Credentials: registration.Credentials{
			Education:       "Enfermeiro",
			Institution:     "USP",
			GraduationYear:  "2015",
			CouncilName:     "COREN",
			CouncilNumber:   "123456",
			ExperienceYears: "8",
		},
		ConsentGiven: true,
	}
}

func corporateDraft() *registration.Draft {
	d := individualDraft()
	d.Individual = nil
	d.Corporate = &registration.Corporate{
		CNPJ:                 "12345678000195",
		CompanyName:          "Clínica Boa Saúde LTDA",
		TechnicalManagerName: "Bruno Lima",
		TechnicalManagerCPF:  "98765432100",
	}
	return d
}

func pdf(name string, size int64) File {
	return File{
		Name:        name,
		ContentType: "application/pdf",
		Size:        size,
		Body:        strings.NewReader(strings.Repeat("x", int(size))),
	}
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("stream reset") }

func (s *SubmissionSuite) TestSubmit() {
	s.Run("record and documents land together", func() {
		outcome, err := s.service.Submit(s.ctx(), individualDraft(), []File{pdf("diploma.pdf", 128), pdf("rg.pdf", 64)})
		s.Require().NoError(err)

		s.Require().NotNil(outcome.Professional)
		s.Require().Len(outcome.Documents, 2)
		for _, doc := range outcome.Documents {
			s.Equal(outcome.Professional.ID, doc.ProfessionalID)
			s.Equal(registration.DefaultDocumentDescription, doc.Description)
		}
		s.Equal(2, s.blobs.Len())
	})

	s.Run("zero files block before anything is written", func() {
		count, err := s.professionals.CountAll(s.ctx())
		s.Require().NoError(err)

		d := individualDraft()
		d.Individual.CPF = "22233344455"
		_, err = s.service.Submit(s.ctx(), d, nil)
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))

		after, err := s.professionals.CountAll(s.ctx())
		s.Require().NoError(err)
		s.Equal(count, after)
	})

	s.Run("oversized file blocks naming the file", func() {
		d := individualDraft()
		d.Individual.CPF = "33344455566"
		_, err := s.service.Submit(s.ctx(), d, []File{pdf("laudo.pdf", registration.MaxFileSize+1)})
		s.Require().Error(err)
		s.Contains(domainerrors.MessageOf(err), "laudo.pdf")
	})

	s.Run("corporate draft checks the registry first", func() {
		before := s.registry.calls
		outcome, err := s.service.Submit(s.ctx(), corporateDraft(), []File{pdf("contrato.pdf", 64)})
		s.Require().NoError(err)
		s.Equal(before+1, s.registry.calls)
		s.NotNil(outcome.Professional.Corporate)
	})

	s.Run("inactive cnpj blocks with the registry message", func() {
		s.registry.result = cnpj.Result{Valid: false, Status: "BAIXADA", Message: "CNPJ com situação BAIXADA na Receita Federal."}

		d := corporateDraft()
		d.Corporate.CNPJ = "98765432000188"
		_, err := s.service.Submit(s.ctx(), d, []File{pdf("contrato.pdf", 64)})
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))
		s.Contains(domainerrors.MessageOf(err), "BAIXADA")
	})

	s.Run("individual draft never touches the registry", func() {
		before := s.registry.calls
		d := individualDraft()
		d.Individual.CPF = "44455566677"
		_, err := s.service.Submit(s.ctx(), d, []File{pdf("diploma.pdf", 64)})
		s.Require().NoError(err)
		s.Equal(before, s.registry.calls)
	})

	s.Run("invalid draft surfaces field errors", func() {
		d := individualDraft()
		d.Individual.CPF = "123"
		_, err := s.service.Submit(s.ctx(), d, []File{pdf("diploma.pdf", 64)})

		var verr *professionalservice.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Contains(verr.Fields, "cpf")
	})
}

func (s *SubmissionSuite) TestFailedUploadDiscardsEarlierDocuments() {
	files := []File{
		pdf("diploma.pdf", 128),
		{Name: "rg.pdf", ContentType: "application/pdf", Size: 64, Body: failingBody{}},
	}
	_, err := s.service.Submit(s.ctx(), individualDraft(), files)
	s.Require().Error(err)

	s.Equal(0, s.blobs.Len())

	records, err := s.professionals.List(s.ctx(), professionalstore.Filter{})
	s.Require().NoError(err)
	for _, p := range records {
		docs, err := s.documents.ListByProfessional(s.ctx(), p.ID)
		s.Require().NoError(err)
		s.Empty(docs)
	}
}
