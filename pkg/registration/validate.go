package registration

import (
	"fmt"
	"net/mail"
	"regexp"

	str "credencia/pkg/platform/strings"
)

// ValidationResult maps field name to error message. Empty means the draft is
// submittable. It is derived from the draft on every call, never cached, so a
// field that became inapplicable after a discriminant change cannot keep a
// stale error.
type ValidationResult map[string]string

// Valid reports whether no field failed.
func (r ValidationResult) Valid() bool { return len(r) == 0 }

var (
	yearPattern   = regexp.MustCompile(`^\d{4}$`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// Validate applies the full field rule set plus the conditional requirements
// of the active variant and education choice.
func Validate(d *Draft) ValidationResult {
	errs := ValidationResult{}

	if len(d.Name) < 3 {
		errs["name"] = "Nome deve ter pelo menos 3 caracteres"
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		errs["email"] = "E-mail inválido"
	}
	if len(str.Digits(d.Phone)) < 10 {
		errs["phone"] = "Telefone inválido"
	}

	validateVariant(d, errs)
	validateAddress(d.Address, errs)
	validateCredentials(d.Credentials, errs)

	if !d.ConsentGiven {
		errs["consent_given"] = "Você deve aceitar os termos da LGPD"
	}

	return errs
}

// validateVariant enforces the registrant-type discriminant: exactly one
// variant present, with its own identity requirements.
func validateVariant(d *Draft, errs ValidationResult) {
	switch {
	case d.Individual != nil && d.Corporate != nil:
		errs["person_type"] = "Informe apenas um tipo de cadastro"
	case d.Individual != nil:
		if len(str.Digits(d.Individual.CPF)) != 11 {
			errs["cpf"] = "CPF deve ter 11 dígitos (apenas números)"
		}
	case d.Corporate != nil:
		if len(str.Digits(d.Corporate.CNPJ)) != 14 {
			errs["cnpj"] = "CNPJ deve ter 14 dígitos (apenas números)"
		}
		if len(d.Corporate.TechnicalManagerName) < 3 {
			errs["technical_manager_name"] = "Nome do responsável técnico é obrigatório"
		}
		if len(str.Digits(d.Corporate.TechnicalManagerCPF)) != 11 {
			errs["technical_manager_cpf"] = "CPF do responsável técnico deve ter 11 dígitos"
		}
	default:
		errs["person_type"] = "Selecione o tipo de cadastro"
	}
}

func validateAddress(a Address, errs ValidationResult) {
	if n := len(a.ZipCode); n < 8 || n > 9 {
		errs["zip_code"] = "CEP inválido"
	}
	if len(a.Street) < 3 {
		errs["street"] = "Logradouro obrigatório"
	}
	if a.Number == "" {
		errs["number"] = "Número obrigatório"
	}
	if len(a.Neighborhood) < 2 {
		errs["neighborhood"] = "Bairro obrigatório"
	}
	if len(a.City) < 2 {
		errs["city"] = "Cidade obrigatória"
	}
	if len(a.State) != 2 {
		errs["state"] = "UF inválida"
	}
}

func validateCredentials(c Credentials, errs ValidationResult) {
	if c.Education == "" {
		errs["education"] = "Selecione sua formação acadêmica"
	} else if c.Education == EducationOther && c.CustomEducation == "" {
		errs["custom_education"] = "Digite sua formação"
	}
	if len(c.Institution) < 2 {
		errs["institution"] = "Instituição é obrigatória"
	}
	if !yearPattern.MatchString(c.GraduationYear) {
		errs["graduation_year"] = "Ano deve ter 4 dígitos"
	}
	if c.CouncilName == "" {
		errs["council_name"] = "Conselho é obrigatório (ex: CRM, COREN)"
	}
	if c.CouncilNumber == "" {
		errs["council_number"] = "Número do conselho é obrigatório"
	}
	if !digitsPattern.MatchString(c.ExperienceYears) {
		errs["experience_years"] = "Apenas números"
	}
}

// CheckFiles enforces the attachment preconditions checked before any network
// call: at least one file, each within the size cap. The returned message
// names the offending file.
func CheckFiles(files []AttachedFile) error {
	stats := make([]FileStat, len(files))
	for i, f := range files {
		stats[i] = FileStat{Name: f.Name, Size: int64(f.Size())}
	}
	return CheckFileStats(stats)
}

// FileStat is the name and size pair the attachment preconditions need. It
// lets streamed uploads run the same checks without staging content.
type FileStat struct {
	Name string
	Size int64
}

// CheckFileStats is CheckFiles over sizes alone.
func CheckFileStats(stats []FileStat) error {
	if len(stats) == 0 {
		return fmt.Errorf("anexe pelo menos um documento")
	}
	for _, f := range stats {
		if f.Size > MaxFileSize {
			return fmt.Errorf("o arquivo %s excede o limite de 5MB", f.Name)
		}
	}
	return nil
}
