package client

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated back office client. The bearer token is held
// here explicitly; nothing is persisted outside this object, and Logout
// simply drops it.
type Session struct {
	c     *Client
	token string
}

// Login exchanges admin credentials for a bearer session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var out struct {
		Access string `json:"access"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/token/", "", body, &out); err != nil {
		return nil, err
	}
	return &Session{c: c, token: out.Access}, nil
}

// Logout invalidates the session client-side.
func (s *Session) Logout() { s.token = "" }

// ListOptions narrow the admin list and list-export calls.
type ListOptions struct {
	Status string
	Search string
	// Ordering is a field name, "-"-prefixed for descending. Empty means
	// newest first.
	Ordering string
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Ordering != "" {
		q.Set("ordering", o.Ordering)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ReviewUpdate is the admin PATCH payload. Nil fields are left untouched.
type ReviewUpdate struct {
	Status        *string `json:"status,omitempty"`
	InternalNotes *string `json:"internal_notes,omitempty"`
}

// AuditEntry is one line of a record's history.
type AuditEntry struct {
	ID          uuid.UUID `json:"id"`
	Actor       string    `json:"actor,omitempty"`
	Action      string    `json:"action"`
	TargetModel string    `json:"target_model"`
	TargetID    string    `json:"target_id"`
	Details     string    `json:"details,omitempty"`
	Device      string    `json:"device,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// DashboardStats is the back office overview payload.
type DashboardStats struct {
	TotalRegistrations int     `json:"total_registrations"`
	Last30Days         int     `json:"last_30_days"`
	Last60Days         int     `json:"last_60_days"`
	Last90Days         int     `json:"last_90_days"`
	AnalyzedThisMonth  int     `json:"analyzed_this_month"`
	AvgAnalysisDays    float64 `json:"avg_analysis_time_days"`
	StatusCounts       []struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	} `json:"status_counts"`
	YearlyVariation []struct {
		Month time.Time `json:"month"`
		Count int       `json:"count"`
	} `json:"yearly_variation"`
}

// ListProfessionals returns the filtered registrations.
func (s *Session) ListProfessionals(ctx context.Context, opts ListOptions) ([]Professional, error) {
	var out []Professional
	if err := s.c.get(ctx, "/professionals/"+opts.query(), s.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProfessional returns one registration.
func (s *Session) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	var out Professional
	if err := s.c.get(ctx, "/professionals/"+id.String()+"/", s.token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfessional applies a status transition, an internal-notes edit, or
// both.
func (s *Session) UpdateProfessional(ctx context.Context, id uuid.UUID, upd ReviewUpdate) (*Professional, error) {
	var out Professional
	if err := s.c.patch(ctx, "/professionals/"+id.String()+"/", s.token, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns a record's audit trail, newest first.
func (s *Session) History(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	var out []AuditEntry
	if err := s.c.get(ctx, "/professionals/"+id.String()+"/history/", s.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDocuments returns the documents attached to one registration.
func (s *Session) ListDocuments(ctx context.Context, professionalID uuid.UUID) ([]Document, error) {
	var out []Document
	if err := s.c.get(ctx, "/professionals/"+professionalID.String()+"/documents/", s.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadDocument fetches one document's content.
func (s *Session) DownloadDocument(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var out []byte
	if err := s.c.get(ctx, "/documents/"+id.String()+"/download/", s.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dashboard returns the overview numbers.
func (s *Session) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := s.c.get(ctx, "/admin/dashboard/", s.token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportProfessionals downloads the filtered list as a spreadsheet.
func (s *Session) ExportProfessionals(ctx context.Context, opts ListOptions) ([]byte, error) {
	var out []byte
	if err := s.c.get(ctx, "/professionals/export_excel/"+opts.query(), s.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportProfessional downloads one registration as a spreadsheet.
func (s *Session) ExportProfessional(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var out []byte
	if err := s.c.get(ctx, "/professionals/"+id.String()+"/export_excel/", s.token, &out); err != nil {
		return nil, err
	}
	return out, nil
}
