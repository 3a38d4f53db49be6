package models

import (
	"time"

	"github.com/google/uuid"

	"credencia/pkg/domainerrors"
)

// PersonType discriminates individual registrants from corporate ones. The
// variant payloads live in Individual and Corporate so each variant's required
// fields are grouped by the type instead of scattered flat fields guarded by
// runtime checks.
type PersonType string

const (
	PersonTypeIndividual PersonType = "PF"
	PersonTypeCorporate  PersonType = "PJ"
)

// Status is the review state machine. New registrations always enter PENDING;
// reviewers move them to the other states from the back office.
type Status string

const (
	StatusPending             Status = "PENDING"
	StatusApproved            Status = "APPROVED"
	StatusRejected            Status = "REJECTED"
	StatusAdjustmentRequested Status = "ADJUSTMENT_REQUESTED"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusAdjustmentRequested:
		return true
	}
	return false
}

// Display returns the Portuguese label used in exports and notification
// emails, mirroring what registrants see.
func (s Status) Display() string {
	switch s {
	case StatusPending:
		return "Pendente"
	case StatusApproved:
		return "Aprovado"
	case StatusRejected:
		return "Reprovado"
	case StatusAdjustmentRequested:
		return "Ajuste Solicitado"
	}
	return string(s)
}

// Final reports whether the review is concluded. Only final records count
// toward average analysis time.
func (s Status) Final() bool {
	return s == StatusApproved || s == StatusRejected
}

// Individual holds the PF-only fields.
type Individual struct {
	CPF       string `json:"cpf"`
	BirthDate string `json:"birth_date,omitempty"`
}

// Corporate holds the PJ-only fields. Corporate registrations always carry a
// technical manager who answers for the service professionally.
type Corporate struct {
	CNPJ                 string `json:"cnpj"`
	CompanyName          string `json:"company_name,omitempty"`
	TechnicalManagerName string `json:"technical_manager_name"`
	TechnicalManagerCPF  string `json:"technical_manager_cpf"`
}

// Address is the registrant's service address, normally autofilled from the
// postal code lookup.
type Address struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Credentials captures the professional qualification data.
type Credentials struct {
	Education       string `json:"education"`
	Institution     string `json:"institution"`
	GraduationYear  int    `json:"graduation_year"`
	CouncilName     string `json:"council_name"`
	CouncilNumber   string `json:"council_number"`
	AreaOfAction    string `json:"area_of_action,omitempty"`
	ExperienceYears int    `json:"experience_years"`
}

// Professional is the aggregate root for one accreditation request.
//
// Invariants:
//   - PersonType is PF or PJ and the matching variant is populated
//   - PF: Individual.CPF has exactly 11 digits; Corporate is nil
//   - PJ: Corporate.CNPJ has exactly 14 digits with manager name and CPF; Individual is nil
//   - ConsentGiven is true and ConsentDate set at submission time
//   - Status transitions only through ApplyStatus
type Professional struct {
	ID         uuid.UUID  `json:"id"`
	PersonType PersonType `json:"person_type"`
	Name       string     `json:"name"`

	Individual *Individual `json:"individual,omitempty"`
	Corporate  *Corporate  `json:"corporate,omitempty"`

	Email string `json:"email"`
	Phone string `json:"phone"`

	Address     Address     `json:"address"`
	Credentials Credentials `json:"credentials"`

	Status           Status    `json:"status"`
	InternalNotes    string    `json:"internal_notes,omitempty"`
	SubmissionDate   time.Time `json:"submission_date"`
	LastStatusUpdate time.Time `json:"last_status_update"`

	ConsentGiven bool       `json:"consent_given"`
	ConsentDate  *time.Time `json:"consent_date,omitempty"`

	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RejectedBy string     `json:"rejected_by,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
}

// TaxID returns the identity document for the active variant, digits only as
// stored. Used for duplicate detection and export filenames.
func (p *Professional) TaxID() string {
	switch p.PersonType {
	case PersonTypeIndividual:
		if p.Individual != nil {
			return p.Individual.CPF
		}
	case PersonTypeCorporate:
		if p.Corporate != nil {
			return p.Corporate.CNPJ
		}
	}
	return ""
}

// CanTransitionTo validates a reviewer-driven status change. Re-review of a
// finalized record is allowed (a rejection can be reversed), but the target
// must differ from the current status.
func (p *Professional) CanTransitionTo(target Status) error {
	if !target.Valid() {
		return domainerrors.Newf(domainerrors.CodeBadRequest, "unknown status %q", target)
	}
	if p.Status == target {
		return domainerrors.Newf(domainerrors.CodeConflict, "registration is already %s", target)
	}
	return nil
}

// ApplyStatus performs the transition and stamps the reviewer. Approval and
// rejection record who decided and when; the stamps are write-once so the
// first decision stays in the audit trail.
func (p *Professional) ApplyStatus(target Status, reviewer string, now time.Time) {
	p.Status = target
	p.LastStatusUpdate = now
	switch target {
	case StatusApproved:
		if p.ApprovedBy == "" {
			p.ApprovedBy = reviewer
			p.ApprovedAt = &now
		}
	case StatusRejected:
		if p.RejectedBy == "" {
			p.RejectedBy = reviewer
			p.RejectedAt = &now
		}
	}
}

// ReviewedAt returns when the record was finalized, nil while pending.
func (p *Professional) ReviewedAt() *time.Time {
	if p.ApprovedAt != nil {
		return p.ApprovedAt
	}
	return p.RejectedAt
}

// Reviewer returns who finalized the record, empty while pending.
func (p *Professional) Reviewer() string {
	if p.ApprovedBy != "" {
		return p.ApprovedBy
	}
	return p.RejectedBy
}
