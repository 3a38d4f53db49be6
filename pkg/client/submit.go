package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"credencia/pkg/registration"
)

// ValidationFailure carries the local field errors that stopped a submission
// before any request was made.
type ValidationFailure struct {
	Fields registration.ValidationResult
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("draft failed validation on %d field(s)", len(e.Fields))
}

// UploadFailure records one document that did not make it after the record
// was created.
type UploadFailure struct {
	FileName string
	Err      error
}

// SubmissionOutcome is the result of the two-step submission sequence. Once
// the record exists the outcome is returned even when some uploads failed;
// FailedUploads makes the partial state explicit so the caller can retry the
// missing documents against the same record.
type SubmissionOutcome struct {
	Professional  *Professional
	Documents     []Document
	FailedUploads []UploadFailure
}

// Complete reports whether every staged file was uploaded.
func (o *SubmissionOutcome) Complete() bool { return len(o.FailedUploads) == 0 }

// Submit runs the full registration sequence: local validation, the file
// preconditions, the registry verdict for corporate drafts, record creation,
// then concurrent uploads of every staged file with the created id. Uploads
// run fan-out with no ordering guarantee.
//
// For corporate drafts the last-known ValidateCNPJ verdict for the draft's
// CNPJ is authoritative; a fresh validation happens only when none exists.
func (c *Client) Submit(ctx context.Context, d *registration.Draft) (*SubmissionOutcome, error) {
	if errs := registration.Validate(d); !errs.Valid() {
		return nil, &ValidationFailure{Fields: errs}
	}
	if err := registration.CheckFiles(d.Files); err != nil {
		return nil, err
	}

	if d.IsCorporate() {
		verdict, ok := c.lastVerdict(d.Corporate.CNPJ)
		if !ok {
			fresh, err := c.ValidateCNPJ(ctx, d.Corporate.CNPJ)
			if err != nil {
				return nil, fmt.Errorf("registry validation: %w", err)
			}
			verdict = *fresh
		}
		if !verdict.Valid {
			return nil, &APIError{
				StatusCode: 400,
				Code:       "bad_request",
				Message:    verdict.Message,
			}
		}
	}

	created, err := c.CreateProfessional(ctx, d)
	if err != nil {
		return nil, err
	}

	outcome := &SubmissionOutcome{Professional: created}

	type slot struct {
		doc *Document
		err error
	}
	results := make([]slot, len(d.Files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range d.Files {
		g.Go(func() error {
			doc, err := c.UploadDocument(gctx, created.ID, f, "")
			results[i] = slot{doc: doc, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.err != nil {
			outcome.FailedUploads = append(outcome.FailedUploads, UploadFailure{
				FileName: d.Files[i].Name,
				Err:      r.err,
			})
			continue
		}
		outcome.Documents = append(outcome.Documents, *r.doc)
	}

	if !outcome.Complete() {
		c.logger.WarnContext(ctx, "submission created with missing documents",
			"professional_id", created.ID,
			"failed", len(outcome.FailedUploads),
		)
	}
	return outcome, nil
}

// flatten degroups a draft into the flat wire payload the registration form
// posts.
type wireRegistration struct {
	PersonType string `json:"person_type,omitempty"`

	Name      string `json:"name"`
	CPF       string `json:"cpf,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date,omitempty"`

	CNPJ                 string `json:"cnpj,omitempty"`
	CompanyName          string `json:"company_name,omitempty"`
	TechnicalManagerName string `json:"technical_manager_name,omitempty"`
	TechnicalManagerCPF  string `json:"technical_manager_cpf,omitempty"`

	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`

	Education       string `json:"education"`
	CustomEducation string `json:"custom_education,omitempty"`
	Institution     string `json:"institution"`
	GraduationYear  string `json:"graduation_year"`
	CouncilName     string `json:"council_name"`
	CouncilNumber   string `json:"council_number"`
	AreaOfAction    string `json:"area_of_action,omitempty"`
	ExperienceYears string `json:"experience_years"`

	ConsentGiven bool `json:"consent_given"`
}

func flatten(d *registration.Draft) wireRegistration {
	w := wireRegistration{
		Name:            d.Name,
		Email:           d.Email,
		Phone:           d.Phone,
		ZipCode:         d.Address.ZipCode,
		Street:          d.Address.Street,
		Number:          d.Address.Number,
		Complement:      d.Address.Complement,
		Neighborhood:    d.Address.Neighborhood,
		City:            d.Address.City,
		State:           d.Address.State,
		Education:       d.Credentials.Education,
		CustomEducation: d.Credentials.CustomEducation,
		Institution:     d.Credentials.Institution,
		GraduationYear:  d.Credentials.GraduationYear,
		CouncilName:     d.Credentials.CouncilName,
		CouncilNumber:   d.Credentials.CouncilNumber,
		AreaOfAction:    d.Credentials.AreaOfAction,
		ExperienceYears: d.Credentials.ExperienceYears,
		ConsentGiven:    d.ConsentGiven,
	}
	if d.Corporate != nil {
		w.PersonType = "PJ"
		w.CNPJ = d.Corporate.CNPJ
		w.CompanyName = d.Corporate.CompanyName
		w.TechnicalManagerName = d.Corporate.TechnicalManagerName
		w.TechnicalManagerCPF = d.Corporate.TechnicalManagerCPF
	} else if d.Individual != nil {
		w.PersonType = "PF"
		w.CPF = d.Individual.CPF
		w.BirthDate = d.Individual.BirthDate
	}
	return w
}

// multipartUpload builds the upload form body: file, professional,
// description.
func multipartUpload(professionalID uuid.UUID, f registration.AttachedFile, description string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	if f.ContentType != "" {
		header.Set("Content-Type", f.ContentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.Content); err != nil {
		return nil, "", err
	}

	if err := mw.WriteField("professional", professionalID.String()); err != nil {
		return nil, "", err
	}
	if description != "" {
		if err := mw.WriteField("description", description); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
