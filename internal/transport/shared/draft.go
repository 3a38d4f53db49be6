package shared

import (
	"bytes"
	"encoding/json"

	"credencia/pkg/registration"
)

// FlexString decodes either a JSON string or number into a string. The
// registration form sends graduation_year and experience_years as numbers;
// the drafts keep them as typed text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(bytes.TrimSpace(data), &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// DraftRequest is the flat wire shape of a registration submission, matching
// the public form field names.
type DraftRequest struct {
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

	Education       string     `json:"education"`
	CustomEducation string     `json:"custom_education,omitempty"`
	Institution     string     `json:"institution"`
	GraduationYear  FlexString `json:"graduation_year"`
	CouncilName     string     `json:"council_name"`
	CouncilNumber   string     `json:"council_number"`
	AreaOfAction    string     `json:"area_of_action,omitempty"`
	ExperienceYears FlexString `json:"experience_years"`

	ConsentGiven bool `json:"consent_given"`
}

// ToDraft groups the flat wire fields into a draft. person_type "PJ" selects
// the corporate variant; anything else, including absent, means an
// individual registrant.
func (r DraftRequest) ToDraft() *registration.Draft {
	d := &registration.Draft{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
		Address: registration.Address{
			ZipCode:      r.ZipCode,
			Street:       r.Street,
			Number:       r.Number,
			Complement:   r.Complement,
			Neighborhood: r.Neighborhood,
			City:         r.City,
			State:        r.State,
		},
		Credentials: registration.Credentials{
			Education:       r.Education,
			CustomEducation: r.CustomEducation,
			Institution:     r.Institution,
			GraduationYear:  string(r.GraduationYear),
			CouncilName:     r.CouncilName,
			CouncilNumber:   r.CouncilNumber,
			AreaOfAction:    r.AreaOfAction,
			ExperienceYears: string(r.ExperienceYears),
		},
		ConsentGiven: r.ConsentGiven,
	}
	if r.PersonType == "PJ" {
		d.Corporate = &registration.Corporate{
			CNPJ:                 r.CNPJ,
			CompanyName:          r.CompanyName,
			TechnicalManagerName: r.TechnicalManagerName,
			TechnicalManagerCPF:  r.TechnicalManagerCPF,
		}
	} else {
		d.Individual = &registration.Individual{
			CPF:       r.CPF,
			BirthDate: r.BirthDate,
		}
	}
	return d
}
