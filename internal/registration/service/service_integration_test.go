//go:build integration

package service_test

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
	professionalservice "credencia/internal/professional/service"
	professionalstore "credencia/internal/professional/store"
	registrationservice "credencia/internal/registration/service"
	txpkg "credencia/pkg/platform/tx"
	"credencia/pkg/registration"
	"credencia/pkg/requestcontext"
	"credencia/pkg/testutil/containers"
)

// SubmissionTxSuite drives the one-shot submission through a real transaction
// boundary: the record, document rows, and audit entries must commit together
// or leave nothing behind.
type SubmissionTxSuite struct {
	suite.Suite
	postgres      *containers.PostgresContainer
	professionals *professionalstore.PostgresStore
	documents     *documentstore.PostgresStore
	blobs         *blob.MemoryStore
	service       *registrationservice.Service
	now           time.Time
}

func TestSubmissionTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SubmissionTxSuite))
}

func (s *SubmissionTxSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
}

func (s *SubmissionTxSuite) TearDownSuite() {
	s.postgres.Terminate(context.Background())
}

func (s *SubmissionTxSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "professionals", "audit_entries"))
	s.now = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.professionals = professionalstore.NewPostgresStore(s.postgres.DB)
	s.documents = documentstore.NewPostgresStore(s.postgres.DB)
	s.blobs = blob.NewMemoryStore()
	auditPub := audit.NewPublisher(audit.NewPostgresStore(s.postgres.DB), nil, logger)

	professionals := professionalservice.New(s.professionals, auditPub,
		professionalservice.WithLogger(logger))
	documents := documentservice.New(s.documents, s.blobs, s.professionals, auditPub,
		documentservice.WithLogger(logger))
	s.service = registrationservice.New(professionals, documents,
		registrationservice.WithTxRunner(txpkg.NewSQLRunner(s.postgres.DB)),
		registrationservice.WithLogger(logger))
}

func (s *SubmissionTxSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *SubmissionTxSuite) draft() *registration.Draft {
	return &registration.Draft{
		Individual: &registration.Individual{CPF: "52998224725", BirthDate: "1990-05-01"},
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

func (s *SubmissionTxSuite) pdf(name string, size int64) registrationservice.File {
	return registrationservice.File{
		Name:        name,
		ContentType: "application/pdf",
		Size:        size,
		Body:        strings.NewReader(strings.Repeat("x", int(size))),
	}
}

func (s *SubmissionTxSuite) tableCount(table string) int {
	var n int
	err := s.postgres.DB.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM "+table).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *SubmissionTxSuite) TestCommit() {
	outcome, err := s.service.Submit(s.ctx(), s.draft(),
		[]registrationservice.File{s.pdf("diploma.pdf", 128), s.pdf("rg.pdf", 64)})
	s.Require().NoError(err)

	s.Equal(1, s.tableCount("professionals"))
	docs, err := s.documents.ListByProfessional(context.Background(), outcome.Professional.ID)
	s.Require().NoError(err)
	s.Len(docs, 2)
	s.Equal(2, s.blobs.Len())
	s.GreaterOrEqual(s.tableCount("audit_entries"), 1)
}

type stallingBody struct{}

func (stallingBody) Read([]byte) (int, error) { return 0, errors.New("stream reset") }

func (s *SubmissionTxSuite) TestMidSubmissionFailureRollsEverythingBack() {
	files := []registrationservice.File{
		s.pdf("diploma.pdf", 128),
		{Name: "rg.pdf", ContentType: "application/pdf", Size: 64, Body: stallingBody{}},
	}
	_, err := s.service.Submit(s.ctx(), s.draft(), files)
	s.Require().Error(err)

	s.Equal(0, s.tableCount("professionals"))
	s.Equal(0, s.tableCount("documents"))
	s.Equal(0, s.tableCount("audit_entries"))
	s.Equal(0, s.blobs.Len())
}
