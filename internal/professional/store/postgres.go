package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"credencia/internal/professional/models"
	txcontext "credencia/pkg/platform/tx"
	"credencia/pkg/sentinel"
)

// PostgresStore persists professionals in a flattened row; the PF/PJ variant
// is rehydrated from person_type on scan.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const professionalColumns = `
	id, person_type, name, cpf, cnpj, company_name,
	technical_manager_name, technical_manager_cpf,
	email, phone, birth_date,
	zip_code, street, number, complement, neighborhood, city, state,
	education, institution, graduation_year, council_name, council_number,
	area_of_action, experience_years,
	status, internal_notes, consent_given, consent_date,
	submission_date, last_status_update,
	approved_by, approved_at, rejected_by, rejected_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Professional) error {
	query := `
		INSERT INTO professionals (` + professionalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
		        $29, $30, $31, $32, $33, $34, $35)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, flatten(p)...)
	if err != nil {
		return fmt.Errorf("insert professional: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, id)
	p, err := scanProfessional(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR cpf ILIKE $%d OR cnpj ILIKE $%d)", n, n, n, n)
	}

	orderColumn := "submission_date"
	if filter.OrderBy == "name" {
		orderColumn = "name"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderColumn, direction)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	defer rows.Close()

	var out []*models.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Professional) error {
	query := `
		UPDATE professionals SET
			status = $2, internal_notes = $3, last_status_update = $4,
			approved_by = $5, approved_at = $6, rejected_by = $7, rejected_at = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		p.ID, string(p.Status), p.InternalNotes, p.LastStatusUpdate,
		p.ApprovedBy, p.ApprovedAt, p.RejectedBy, p.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("update professional: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ExistsRecentTaxID(ctx context.Context, taxID string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM professionals
			WHERE (cpf = $1 OR cnpj = $1) AND submission_date >= $2
		)
	`
	var exists bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, taxID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent tax id: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CountAll(ctx context.Context) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM professionals`).Scan(&count)
	return count, err
}

func (s *PostgresStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM professionals WHERE submission_date >= $1`, since).Scan(&count)
	return count, err
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM professionals GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[models.Status(status)] = count
	}
	return out, rows.Err()
}

func (s *PostgresStore) MonthlyCounts(ctx context.Context, from time.Time) ([]MonthCount, error) {
	query := `
		SELECT date_trunc('month', submission_date) AS month, COUNT(*)
		FROM professionals
		WHERE submission_date >= $1
		GROUP BY month
		ORDER BY month
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	defer rows.Close()

	var out []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AvgAnalysisDays(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(
			AVG(EXTRACT(EPOCH FROM COALESCE(approved_at, rejected_at) - submission_date)), 0
		)
		FROM professionals
		WHERE status IN ('APPROVED', 'REJECTED')
	`
	var seconds float64
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&seconds); err != nil {
		return 0, fmt.Errorf("avg analysis time: %w", err)
	}
	return seconds / 86400, nil
}

func flatten(p *models.Professional) []any {
	var ind models.Individual
	if p.Individual != nil {
		ind = *p.Individual
	}
	var corp models.Corporate
	if p.Corporate != nil {
		corp = *p.Corporate
	}
	return []any{
		p.ID, string(p.PersonType), p.Name, ind.CPF, corp.CNPJ, corp.CompanyName,
		corp.TechnicalManagerName, corp.TechnicalManagerCPF,
		p.Email, p.Phone, ind.BirthDate,
		p.Address.ZipCode, p.Address.Street, p.Address.Number, p.Address.Complement,
		p.Address.Neighborhood, p.Address.City, p.Address.State,
		p.Credentials.Education, p.Credentials.Institution, p.Credentials.GraduationYear,
		p.Credentials.CouncilName, p.Credentials.CouncilNumber,
		p.Credentials.AreaOfAction, p.Credentials.ExperienceYears,
		string(p.Status), p.InternalNotes, p.ConsentGiven, p.ConsentDate,
		p.SubmissionDate, p.LastStatusUpdate,
		p.ApprovedBy, p.ApprovedAt, p.RejectedBy, p.RejectedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfessional(row rowScanner) (*models.Professional, error) {
	var (
		p          models.Professional
		personType string
		status     string
		ind        models.Individual
		corp       models.Corporate
	)
	err := row.Scan(
		&p.ID, &personType, &p.Name, &ind.CPF, &corp.CNPJ, &corp.CompanyName,
		&corp.TechnicalManagerName, &corp.TechnicalManagerCPF,
		&p.Email, &p.Phone, &ind.BirthDate,
		&p.Address.ZipCode, &p.Address.Street, &p.Address.Number, &p.Address.Complement,
		&p.Address.Neighborhood, &p.Address.City, &p.Address.State,
		&p.Credentials.Education, &p.Credentials.Institution, &p.Credentials.GraduationYear,
		&p.Credentials.CouncilName, &p.Credentials.CouncilNumber,
		&p.Credentials.AreaOfAction, &p.Credentials.ExperienceYears,
		&status, &p.InternalNotes, &p.ConsentGiven, &p.ConsentDate,
		&p.SubmissionDate, &p.LastStatusUpdate,
		&p.ApprovedBy, &p.ApprovedAt, &p.RejectedBy, &p.RejectedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan professional: %w", err)
	}
	p.PersonType = models.PersonType(personType)
	p.Status = models.Status(status)
	switch p.PersonType {
	case models.PersonTypeIndividual:
		p.Individual = &ind
	case models.PersonTypeCorporate:
		p.Corporate = &corp
	}
	return &p, nil
}
