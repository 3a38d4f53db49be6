// Package registration models the public registration workflow: the
// in-progress draft, its declarative validation rules, and the conditional
// requirements driven by the registrant-type and education discriminants.
// Validation here is pure and synchronous; nothing in this package touches
// the network.
package registration

// EducationOther is the sentinel education choice that makes the free-text
// CustomEducation field mandatory.
const EducationOther = "Outros"

// MaxFileSize is the per-document upload limit.
const MaxFileSize = 5 * 1024 * 1024

// DefaultDocumentDescription labels documents uploaded during registration.
const DefaultDocumentDescription = "Documento de Habilitação"

// Individual is the PF variant payload. Exactly one of Draft.Individual and
// Draft.Corporate must be set; the populated variant decides which identity
// fields are required.
type Individual struct {
	CPF       string `json:"cpf"`
	BirthDate string `json:"birth_date,omitempty"`
}

// Corporate is the PJ variant payload.
type Corporate struct {
	CNPJ                 string `json:"cnpj"`
	CompanyName          string `json:"company_name,omitempty"`
	TechnicalManagerName string `json:"technical_manager_name"`
	TechnicalManagerCPF  string `json:"technical_manager_cpf"`
}

// Address holds the service address fields populated by the postal lookup.
type Address struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Credentials holds the professional qualification fields. Year and numeric
// fields stay strings in the draft, exactly as typed; validation applies the
// digit rules and submission converts them.
type Credentials struct {
	Education       string `json:"education"`
	CustomEducation string `json:"custom_education,omitempty"`
	Institution     string `json:"institution"`
	GraduationYear  string `json:"graduation_year"`
	CouncilName     string `json:"council_name"`
	CouncilNumber   string `json:"council_number"`
	AreaOfAction    string `json:"area_of_action,omitempty"`
	ExperienceYears string `json:"experience_years"`
}

// AttachedFile stages one user-selected document before submission. Content is
// held in memory; the 5 MB cap keeps that bounded.
type AttachedFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// Size returns the staged byte count.
func (f AttachedFile) Size() int { return len(f.Content) }

// Draft is the client-side registration state. It is owned by a single
// submission flow and never shared across goroutines.
type Draft struct {
	Individual *Individual `json:"individual,omitempty"`
	Corporate  *Corporate  `json:"corporate,omitempty"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Address     Address     `json:"address"`
	Credentials Credentials `json:"credentials"`

	ConsentGiven bool `json:"consent_given"`

	Files []AttachedFile `json:"-"`
}

// IsCorporate reports which variant the draft carries.
func (d *Draft) IsCorporate() bool { return d.Corporate != nil }

// FinalEducation resolves the education discriminant: the sentinel "Outros"
// yields the free-text value, any other choice is taken verbatim and a stale
// CustomEducation is ignored.
func (d *Draft) FinalEducation() string {
	if d.Credentials.Education == EducationOther {
		return d.Credentials.CustomEducation
	}
	return d.Credentials.Education
}
