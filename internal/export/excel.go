// Package export renders the back office spreadsheet downloads. The workbook
// layout mirrors the admin list view: one universal column set with "-"
// placeholders for fields the registrant's variant does not carry.
package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"credencia/internal/professional/models"
	str "credencia/pkg/platform/strings"
)

const sheetName = "Profissionais"

// ContentType is the MIME type for the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columns = []string{
	"Data Envio", "Status", "Tipo",
	"Nome / Razão Social", "Nome Fantasia",
	"CPF", "CNPJ",
	"Data Nascimento / Abertura",
	"Nome Resp. Técnico", "CPF Resp. Técnico",
	"Email", "Telefone",
	"CEP", "Logradouro", "Número", "Complemento", "Bairro", "Cidade", "UF",
	"Formação", "Instituição", "Ano Conclusão",
	"Conselho", "Nº Conselho", "Área Atuação", "Experiência (anos)",
	"Data Aprovação/Reprovação", "Responsável Análise",
}

func buildWorkbook(professionals []*models.Professional) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	widths := make([]int, len(columns))
	for i, c := range columns {
		header[i] = c
		widths[i] = len(c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, p := range professionals {
		row := professionalRow(p)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
		for col, v := range row {
			if l := len(fmt.Sprint(v)); l > widths[col] {
				widths[col] = l
			}
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, float64(w+2)); err != nil {
			return nil, fmt.Errorf("size column %s: %w", name, err)
		}
	}
	return f, nil
}

func professionalRow(p *models.Professional) []interface{} {
	isPJ := p.PersonType == models.PersonTypeCorporate

	companyName := "-"
	cpf := "-"
	cnpj := "-"
	birthDate := "-"
	managerName := "-"
	managerCPF := "-"
	if isPJ {
		if p.Corporate != nil {
			companyName = orDash(p.Corporate.CompanyName)
			cnpj = p.Corporate.CNPJ
			managerName = p.Corporate.TechnicalManagerName
			managerCPF = p.Corporate.TechnicalManagerCPF
		}
	} else if p.Individual != nil {
		cpf = p.Individual.CPF
		birthDate = formatBirthDate(p.Individual.BirthDate)
	}

	reviewDate := "-"
	if at := p.ReviewedAt(); at != nil {
		reviewDate = at.Format("02/01/2006 15:04")
	}
	reviewer := orDash(p.Reviewer())

	return []interface{}{
		p.SubmissionDate.Format("02/01/2006 15:04"),
		p.Status.Display(),
		personTypeDisplay(p.PersonType),
		p.Name,
		companyName,
		cpf,
		cnpj,
		birthDate,
		managerName,
		managerCPF,
		p.Email,
		p.Phone,
		p.Address.ZipCode,
		p.Address.Street,
		p.Address.Number,
		orDash(p.Address.Complement),
		p.Address.Neighborhood,
		p.Address.City,
		p.Address.State,
		p.Credentials.Education,
		p.Credentials.Institution,
		p.Credentials.GraduationYear,
		p.Credentials.CouncilName,
		p.Credentials.CouncilNumber,
		orDash(p.Credentials.AreaOfAction),
		p.Credentials.ExperienceYears,
		reviewDate,
		reviewer,
	}
}

func personTypeDisplay(t models.PersonType) string {
	if t == models.PersonTypeCorporate {
		return "Pessoa Jurídica"
	}
	return "Pessoa Física"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatBirthDate turns the stored ISO date into dd/mm/yyyy. Anything
// unparseable is shown as received.
func formatBirthDate(s string) string {
	if s == "" {
		return "-"
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Format("02/01/2006")
	}
	return s
}

// ListFilename is the download name for the filtered list export.
const ListFilename = "profissionais_credencia.xlsx"

// RecordFilename builds the per-record download name,
// prestador_<name>_<tax digits>_<yyyymmdd>.xlsx.
func RecordFilename(p *models.Professional, now time.Time) string {
	identifier := "no_doc"
	if digits := str.Digits(p.TaxID()); digits != "" {
		identifier = digits
	}
	return fmt.Sprintf("prestador_%s_%s_%s.xlsx", cleanName(p.Name), identifier, now.Format("20060102"))
}

func cleanName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}
