// Package client is the Go API client for the accreditation service. It
// carries the registration workflow the public form runs: local draft
// validation, postal autofill, registry validation for corporate registrants,
// and the create-then-upload submission sequence. Admin calls require a
// Session obtained from Login; the bearer token lives on the session object,
// nowhere else.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"credencia/pkg/registration"
)

// Client talks to the public surface of the service. It is safe for
// concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	// Last-known registry verdict per CNPJ. The most recent explicit
	// validation is authoritative at submission time; Submit only fetches a
	// fresh verdict when none is cached.
	mu           sync.Mutex
	cnpjVerdicts map[string]CNPJResult
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l *slog.Logger) Option     { return func(c *Client) { c.logger = l } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default(),
		cnpjVerdicts: map[string]CNPJResult{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Professional is the service's registration record as returned on the wire.
type Professional struct {
	ID         uuid.UUID `json:"id"`
	PersonType string    `json:"person_type"`
	Name       string    `json:"name"`

	Individual *registration.Individual `json:"individual,omitempty"`
	Corporate  *registration.Corporate  `json:"corporate,omitempty"`

	Email string `json:"email"`
	Phone string `json:"phone"`

	Status           string    `json:"status"`
	InternalNotes    string    `json:"internal_notes,omitempty"`
	SubmissionDate   time.Time `json:"submission_date"`
	LastStatusUpdate time.Time `json:"last_status_update"`

	ApprovedBy string `json:"approved_by,omitempty"`
	RejectedBy string `json:"rejected_by,omitempty"`
}

// Document is one stored supporting document.
type Document struct {
	ID             uuid.UUID `json:"id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	FileName       string    `json:"file_name"`
	Description    string    `json:"description"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size_bytes"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Address is the postal lookup result.
type Address struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// CNPJResult is the registry verdict for one CNPJ.
type CNPJResult struct {
	Valid   bool   `json:"valid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LookupCEP queries the postal autofill endpoint. The service only consults
// the upstream for cleaned 8-digit codes; anything else is a BadRequest.
func (c *Client) LookupCEP(ctx context.Context, code string) (*Address, error) {
	var out Address
	if err := c.get(ctx, "/cep/"+url.PathEscape(code)+"/", "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateCNPJ queries the registry validation endpoint and records the
// verdict as the last-known result for that CNPJ.
func (c *Client) ValidateCNPJ(ctx context.Context, cnpj string) (*CNPJResult, error) {
	var out CNPJResult
	path := "/validate-cnpj/?cnpj=" + url.QueryEscape(cnpj)
	if err := c.get(ctx, path, "", &out); err != nil {
		return nil, err
	}
	c.rememberVerdict(cnpj, out)
	return &out, nil
}

// CreateProfessional posts a draft to the public registration endpoint.
func (c *Client) CreateProfessional(ctx context.Context, d *registration.Draft) (*Professional, error) {
	var out Professional
	if err := c.post(ctx, "/professionals/", "", flatten(d), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument sends one staged file for an existing registration. An empty
// description gets the service-side default.
func (c *Client) UploadDocument(ctx context.Context, professionalID uuid.UUID, f registration.AttachedFile, description string) (*Document, error) {
	body, contentType, err := multipartUpload(professionalID, f, description)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var out Document
	if err := c.send(req, &out); err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return &out, nil
}

func (c *Client) rememberVerdict(cnpj string, result CNPJResult) {
	c.mu.Lock()
	c.cnpjVerdicts[digits(cnpj)] = result
	c.mu.Unlock()
}

func (c *Client) lastVerdict(cnpj string) (CNPJResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.cnpjVerdicts[digits(cnpj)]
	return r, ok
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req, out)
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	return c.write(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) patch(ctx context.Context, path, token string, body, out any) error {
	return c.write(ctx, http.MethodPatch, path, token, body, out)
}

func (c *Client) write(ctx context.Context, method, path, token string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req, out)
}

// send executes the request and decodes either the payload or the service's
// error envelope. Transport failures come back unwrapped so callers can tell
// connectivity problems from service rejections.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*raw = data
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
