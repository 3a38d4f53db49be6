package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"credencia/internal/audit"
	"credencia/internal/platform/metrics"
	"credencia/internal/professional/models"
	"credencia/internal/professional/store"
	"credencia/pkg/domainerrors"
	str "credencia/pkg/platform/strings"
	txpkg "credencia/pkg/platform/tx"
	"credencia/pkg/registration"
	"credencia/pkg/requestcontext"
	"credencia/pkg/sentinel"
)

// TargetModel is the audit target label for professional records.
const TargetModel = "Professional"

// ResubmissionWindow is how long a tax ID blocks a new registration after a
// submission. Registrants whose request was rejected can try again after it
// elapses.
const ResubmissionWindow = 90 * 24 * time.Hour

// Notifier delivers registrant-facing emails. Failures are logged, never
// propagated: losing an email must not lose a registration.
type Notifier interface {
	SendConfirmation(ctx context.Context, p *models.Professional) error
	SendStatusChange(ctx context.Context, p *models.Professional) error
}

// ValidationError carries field-level failures to the transport layer.
type ValidationError struct {
	Fields registration.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// ReviewUpdate is the admin PATCH payload. Nil fields are left untouched.
type ReviewUpdate struct {
	Status        *models.Status `json:"status,omitempty"`
	InternalNotes *string        `json:"internal_notes,omitempty"`
}

// Service orchestrates the professional lifecycle: public registration, the
// admin review workflow, and the audit trail both produce.
type Service struct {
	store    store.Store
	audit    *audit.Publisher
	notifier Notifier
	metrics  *metrics.Metrics
	tx       txpkg.Runner
	logger   *slog.Logger
}

type serviceConfig struct {
	notifier Notifier
	metrics  *metrics.Metrics
	tx       txpkg.Runner
	logger   *slog.Logger
}

type Option func(*serviceConfig)

func WithNotifier(n Notifier) Option        { return func(c *serviceConfig) { c.notifier = n } }
func WithMetrics(m *metrics.Metrics) Option { return func(c *serviceConfig) { c.metrics = m } }
func WithTxRunner(r txpkg.Runner) Option    { return func(c *serviceConfig) { c.tx = r } }
func WithLogger(l *slog.Logger) Option      { return func(c *serviceConfig) { c.logger = l } }

func New(st store.Store, auditPub *audit.Publisher, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = txpkg.NoopRunner{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		store:    st,
		audit:    auditPub,
		notifier: cfg.notifier,
		metrics:  cfg.metrics,
		tx:       cfg.tx,
		logger:   cfg.logger,
	}
}

// Register creates a PENDING record from a validated draft. The duplicate
// check and the insert share a transaction so two concurrent submissions with
// the same tax ID cannot both pass.
func (s *Service) Register(ctx context.Context, draft *registration.Draft) (*models.Professional, error) {
	if errs := registration.Validate(draft); !errs.Valid() {
		s.incRegistrationFailed()
		return nil, &ValidationError{Fields: errs}
	}

	now := requestcontext.Now(ctx)
	var created *models.Professional
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p := fromDraft(draft, now)

		exists, err := s.store.ExistsRecentTaxID(txCtx, p.TaxID(), now.Add(-ResubmissionWindow))
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check existing registrations")
		}
		if exists {
			return duplicateIdentityError(p.PersonType)
		}

		if err := s.store.Create(txCtx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return duplicateIdentityError(p.PersonType)
			}
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create registration")
		}

		if err := s.audit.Emit(txCtx, audit.Entry{
			Action:      audit.ActionCreate,
			TargetModel: TargetModel,
			TargetID:    p.ID.String(),
			Details:     fmt.Sprintf("Professional registered: %s", p.Name),
		}); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to record audit entry")
		}

		created = p
		return nil
	})
	if err != nil {
		s.incRegistrationFailed()
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration created",
		"professional_id", created.ID,
		"person_type", created.PersonType,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	s.sendConfirmation(ctx, created)

	return created, nil
}

// Get returns one record for the admin detail view.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Professional, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

// List returns the filtered admin list view.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]*models.Professional, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list registrations")
	}
	return out, nil
}

// Review applies an admin update: a status transition, an internal-notes edit,
// or both. Each change produces its own audit entry; a status change also
// notifies the registrant.
func (s *Service) Review(ctx context.Context, id uuid.UUID, upd ReviewUpdate) (*models.Professional, error) {
	reviewer := requestcontext.Actor(ctx)
	if reviewer == "" {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "review requires an authenticated admin")
	}

	now := requestcontext.Now(ctx)
	var updated *models.Professional
	var statusChanged bool

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapStoreErr(err)
		}
		oldStatus := p.Status

		if upd.Status != nil && *upd.Status != oldStatus {
			if err := p.CanTransitionTo(*upd.Status); err != nil {
				return err
			}
			p.ApplyStatus(*upd.Status, reviewer, now)
			statusChanged = true
		}

		notesChanged := upd.InternalNotes != nil && *upd.InternalNotes != p.InternalNotes
		if notesChanged {
			p.InternalNotes = *upd.InternalNotes
			p.LastStatusUpdate = now
		}

		if !statusChanged && !notesChanged {
			return domainerrors.New(domainerrors.CodeBadRequest, "nothing to update")
		}

		if err := s.store.Update(txCtx, p); err != nil {
			return wrapStoreErr(err)
		}

		if statusChanged {
			if err := s.audit.Emit(txCtx, audit.Entry{
				Action:      audit.ActionStatusChange,
				TargetModel: TargetModel,
				TargetID:    p.ID.String(),
				Details:     fmt.Sprintf("Status changed to %s", p.Status),
			}); err != nil {
				return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to record audit entry")
			}
		}
		if notesChanged {
			if err := s.audit.Emit(txCtx, audit.Entry{
				Action:      audit.ActionUpdate,
				TargetModel: TargetModel,
				TargetID:    p.ID.String(),
				Details:     "Internal notes updated",
			}); err != nil {
				return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to record audit entry")
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusChanged {
		s.logger.InfoContext(ctx, "status changed",
			"professional_id", updated.ID,
			"new_status", updated.Status,
			"changed_by", reviewer,
		)
		if s.metrics != nil {
			s.metrics.StatusTransitions.WithLabelValues(string(updated.Status)).Inc()
		}
		s.sendStatusChange(ctx, updated)
	}

	return updated, nil
}

// History returns the audit entries for one record, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return nil, wrapStoreErr(err)
	}
	entries, err := s.audit.History(ctx, TargetModel, id.String())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load history")
	}
	return entries, nil
}

func (s *Service) sendConfirmation(ctx context.Context, p *models.Professional) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendConfirmation(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "confirmation email failed",
			"professional_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) sendStatusChange(ctx context.Context, p *models.Professional) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendStatusChange(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "status change email failed",
			"professional_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) incRegistrationFailed() {
	if s.metrics != nil {
		s.metrics.RegistrationsFailed.Inc()
	}
}

// duplicateIdentityError keeps the tax-ID field name in the message because
// clients classify duplicate-identity conflicts by that substring.
func duplicateIdentityError(pt models.PersonType) error {
	field := "CPF"
	if pt == models.PersonTypeCorporate {
		field = "CNPJ"
	}
	return domainerrors.Newf(domainerrors.CodeConflict,
		"Já existe uma solicitação para este %s nos últimos 90 dias.", field)
}

func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.New(domainerrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrConflict):
		return domainerrors.New(domainerrors.CodeConflict, "registration conflict")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "storage failure")
	}
}

// fromDraft materializes the aggregate from a validated draft. Numeric draft
// fields were already checked by the validator, so conversion cannot fail.
func fromDraft(d *registration.Draft, now time.Time) *models.Professional {
	year, _ := strconv.Atoi(d.Credentials.GraduationYear)
	exp, _ := strconv.Atoi(d.Credentials.ExperienceYears)

	p := &models.Professional{
		ID:    uuid.New(),
		Name:  d.Name,
		Email: d.Email,
		Phone: d.Phone,
		Address: models.Address{
			ZipCode:      d.Address.ZipCode,
			Street:       d.Address.Street,
			Number:       d.Address.Number,
			Complement:   d.Address.Complement,
			Neighborhood: d.Address.Neighborhood,
			City:         d.Address.City,
			State:        d.Address.State,
		},
		Credentials: models.Credentials{
			Education:       d.FinalEducation(),
			Institution:     d.Credentials.Institution,
			GraduationYear:  year,
			CouncilName:     d.Credentials.CouncilName,
			CouncilNumber:   d.Credentials.CouncilNumber,
			AreaOfAction:    d.Credentials.AreaOfAction,
			ExperienceYears: exp,
		},
		Status:           models.StatusPending,
		SubmissionDate:   now,
		LastStatusUpdate: now,
		ConsentGiven:     true,
		ConsentDate:      &now,
	}

	if d.Corporate != nil {
		p.PersonType = models.PersonTypeCorporate
		p.Corporate = &models.Corporate{
			CNPJ:                 str.Digits(d.Corporate.CNPJ),
			CompanyName:          d.Corporate.CompanyName,
			TechnicalManagerName: d.Corporate.TechnicalManagerName,
			TechnicalManagerCPF:  str.Digits(d.Corporate.TechnicalManagerCPF),
		}
	} else {
		p.PersonType = models.PersonTypeIndividual
		p.Individual = &models.Individual{
			CPF:       str.Digits(d.Individual.CPF),
			BirthDate: d.Individual.BirthDate,
		}
	}
	return p
}
