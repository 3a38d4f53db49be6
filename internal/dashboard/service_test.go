package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credencia/internal/audit"
	"credencia/internal/professional/models"
	"credencia/internal/professional/store"
	"credencia/pkg/requestcontext"
)

type DashboardSuite struct {
	suite.Suite
	professionals *store.MemoryStore
	auditLog      *audit.MemoryStore
	service       *Service
	now           time.Time
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardSuite))
}

func (s *DashboardSuite) SetupTest() {
	s.professionals = store.NewMemoryStore()
	s.auditLog = audit.NewMemoryStore()
	s.service = NewService(s.professionals, s.auditLog)
	s.now = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
}

func (s *DashboardSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *DashboardSuite) add(cpf string, submitted time.Time, status models.Status, reviewedAfter time.Duration) {
	p := &models.Professional{
		ID:             uuid.New(),
		PersonType:     models.PersonTypeIndividual,
		Individual:     &models.Individual{CPF: cpf},
		Name:           "Profissional " + cpf,
		Email:          cpf + "@example.com",
		Status:         status,
		SubmissionDate: submitted,
	}
	if status.Final() {
		at := submitted.Add(reviewedAfter)
		if status == models.StatusApproved {
			p.ApprovedBy = "reviewer1"
			p.ApprovedAt = &at
		} else {
			p.RejectedBy = "reviewer1"
			p.RejectedAt = &at
		}
	}
	s.Require().NoError(s.professionals.Create(context.Background(), p))
}

func (s *DashboardSuite) TestOverview() {
	s.add("11111111111", s.now.AddDate(0, 0, -5), models.StatusPending, 0)
	s.add("22222222222", s.now.AddDate(0, 0, -45), models.StatusApproved, 2*24*time.Hour)
	s.add("33333333333", s.now.AddDate(0, 0, -80), models.StatusRejected, 4*24*time.Hour)
	s.add("44444444444", s.now.AddDate(0, 0, -200), models.StatusApproved, 6*24*time.Hour)

	// Two distinct records touched by reviewers this month, one of them twice.
	for _, e := range []audit.Entry{
		{Action: audit.ActionStatusChange, TargetModel: "Professional", TargetID: "a", OccurredAt: s.now.AddDate(0, 0, -1)},
		{Action: audit.ActionUpdate, TargetModel: "Professional", TargetID: "a", OccurredAt: s.now.AddDate(0, 0, -2)},
		{Action: audit.ActionStatusChange, TargetModel: "Professional", TargetID: "b", OccurredAt: s.now.AddDate(0, 0, -3)},
		{Action: audit.ActionView, TargetModel: "Professional", TargetID: "c", OccurredAt: s.now.AddDate(0, 0, -1)},
		{Action: audit.ActionStatusChange, TargetModel: "Professional", TargetID: "d", OccurredAt: s.now.AddDate(0, -2, 0)},
	} {
		e.ID = uuid.New()
		s.Require().NoError(s.auditLog.Append(context.Background(), e))
	}

	stats, err := s.service.Overview(s.ctx())
	s.Require().NoError(err)

	s.Equal(4, stats.Total)
	s.Equal(1, stats.Last30Days)
	s.Equal(2, stats.Last60Days)
	s.Equal(3, stats.Last90Days)

	s.Equal([]StatusCount{
		{Status: models.StatusPending, Count: 1},
		{Status: models.StatusApproved, Count: 2},
		{Status: models.StatusRejected, Count: 1},
	}, stats.StatusCounts)

	s.Len(stats.YearlyVariation, 4)

	s.Equal(2, stats.AnalyzedThisMonth, "VIEW actions and other months do not count")

	// (2 + 4 + 6) / 3 finalized records.
	s.InDelta(4.0, stats.AvgAnalysisDays, 0.01)
}

func (s *DashboardSuite) TestOverviewEmpty() {
	stats, err := s.service.Overview(s.ctx())
	s.Require().NoError(err)
	s.Zero(stats.Total)
	s.Empty(stats.StatusCounts)
	s.Empty(stats.YearlyVariation)
	s.Zero(stats.AvgAnalysisDays)
}
